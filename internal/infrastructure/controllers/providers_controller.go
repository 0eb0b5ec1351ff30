package controllers

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/scmforge/internal/domain/commands"
	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// ProvidersController handles the "providers" subcommand.
type ProvidersController struct {
	newManager commands.ManagerFactory
}

// NewProvidersController creates a new ProvidersController.
func NewProvidersController(newManager commands.ManagerFactory) *ProvidersController {
	return &ProvidersController{newManager: newManager}
}

// GetBind returns the Cobra command metadata for the providers controller.
func (it *ProvidersController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "providers",
		Short: "List the registered providers and the commands they support",
		Args:  cobra.NoArgs,
	}
}

func (it *ProvidersController) AddFlags(_ *cobra.Command) {}

func (it *ProvidersController) Execute(cmd *cobra.Command, _ []string) error {
	manager, err := it.newManager(stringFlag(cmd, "config"))
	if err != nil {
		return err
	}
	infos := manager.Providers()
	if stringFlag(cmd, "output") == outputYAML {
		data, marshalErr := yaml.Marshal(infos)
		if marshalErr != nil {
			return fmt.Errorf("failed to encode providers: %w", marshalErr)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Tag", "Implementation", "Working Copy Marker", "Commands")
	for _, info := range infos {
		names := make([]string, 0, len(info.Commands))
		for _, c := range info.Commands {
			names = append(names, string(c))
		}
		if appendErr := table.Append(info.Tag, info.Implementation, info.MetadataFile,
			strings.Join(names, " ")); appendErr != nil {
			return appendErr
		}
	}
	return table.Render()
}
