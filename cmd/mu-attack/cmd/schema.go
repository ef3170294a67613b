package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/picogrid/mu-attack/pkg/config"
	"github.com/picogrid/mu-attack/pkg/logger"
)

var schemaFormat string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show every configuration parameter",
	Long:  `Show every section and parameter of the experiment configuration as a table or as YAML`,
	RunE:  showSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaFormat, "format", "f", "table", "output format (table, yaml)")
}

type paramDoc struct {
	Name     string      `yaml:"name"`
	Type     string      `yaml:"type"`
	Default  interface{} `yaml:"default,omitempty"`
	Required bool        `yaml:"required,omitempty"`
	Desc     string      `yaml:"description"`
}

type sectionDoc struct {
	Name        string     `yaml:"section"`
	Desc        string     `yaml:"description"`
	Conditional bool       `yaml:"conditional,omitempty"`
	Params      []paramDoc `yaml:"params"`
}

func describe(s *config.Schema) []sectionDoc {
	var docs []sectionDoc
	for _, sec := range s.Sections() {
		doc := sectionDoc{Name: sec.Name, Desc: sec.Desc, Conditional: sec.Conditional()}
		for _, p := range sec.ParamList() {
			doc.Params = append(doc.Params, paramDoc{
				Name:     p.Name,
				Type:     p.Check.Help(),
				Default:  p.Default,
				Required: p.Required,
				Desc:     p.Desc,
			})
		}
		docs = append(docs, doc)
	}
	return docs
}

func showSchema(cmd *cobra.Command, args []string) error {
	docs := describe(schema)

	switch schemaFormat {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		return enc.Close()
	case "table":
		table := logger.NewTable("PARAMETER", "TYPE", "DEFAULT", "DESCRIPTION")
		for _, sec := range docs {
			for _, p := range sec.Params {
				def := "-"
				switch {
				case p.Required:
					def = "required"
				case p.Default != nil:
					def = fmt.Sprintf("%v", p.Default)
				}
				table.AddRow(config.Key(sec.Name, p.Name), p.Type, def, p.Desc)
			}
		}
		fmt.Print(table.Render())
		return nil
	default:
		return fmt.Errorf("unknown format %s", schemaFormat)
	}
}
