package cmd

import (
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the canonical motor catalog",
	}
	cmd.AddCommand(
		newCatalogImportCommand(),
		newCatalogListCommand(),
	)
	return cmd
}

// catalogFile is the YAML shape accepted by catalog import.
type catalogFile struct {
	Motors []catalogMotor `yaml:"motors"`
}

type catalogMotor struct {
	Model      string  `yaml:"model"`
	Horsepower float64 `yaml:"horsepower"`
	Family     string  `yaml:"family"`
	ShaftCode  string  `yaml:"shaft_code"`
	BasePrice  float64 `yaml:"base_price"`
}

func newCatalogImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import canonical motor records from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file catalogFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return errors.NewParseError("catalog", "yaml", "decode catalog file", err)
			}

			application, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			imported := 0
			for _, record := range file.Motors {
				if record.Model == "" || record.Horsepower <= 0 {
					cmd.Printf("skipping invalid record %q\n", record.Model)
					continue
				}
				motor := &types.Motor{
					ModelDisplay: record.Model,
					Horsepower:   record.Horsepower,
					Family:       types.Family(record.Family),
					ShaftCode:    record.ShaftCode,
					BasePrice:    record.BasePrice,
				}
				if motor.Family == "" {
					motor.Family = types.FamilyUnknown
				}
				if err := application.Store.InsertMotor(cmd.Context(), motor); err != nil {
					return err
				}
				imported++
			}
			cmd.Printf("imported %d motors\n", imported)
			return nil
		},
	}
}

func newCatalogListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog records with stock and pricing",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			motors, err := application.Store.ListMotors(cmd.Context())
			if err != nil {
				return err
			}
			if len(motors) == 0 {
				cmd.Println("catalog is empty")
				return nil
			}

			rows := make([][]string, 0, len(motors))
			for _, motor := range motors {
				stock := "-"
				if motor.InStock {
					stock = strconv.Itoa(motor.StockQuantity)
				}
				price := money(motor.DealerPrice)
				if motor.DealerPrice <= 0 && motor.BasePrice > 0 {
					price = money(motor.BasePrice)
				} else if motor.DealerPrice <= 0 && motor.EstimatedPrice > 0 {
					price = money(motor.EstimatedPrice) + " (est)"
				}
				rows = append(rows, []string{
					strconv.FormatInt(motor.ID, 10),
					motor.ModelDisplay,
					strconv.FormatFloat(motor.Horsepower, 'f', -1, 64),
					motor.Family.String(),
					motor.ShaftCode,
					stock,
					price,
					strconv.Itoa(motor.QualityScore),
				})
			}
			cmd.Println(renderTable(
				[]string{"ID", "Model", "HP", "Family", "Shaft", "Stock", "Price", "Quality"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}
