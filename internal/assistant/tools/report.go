package tools

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	// ReportToolName is the single tool the assistant exposes to the model.
	ReportToolName = "get_reports_from_query"

	noResultsMessage = "No se encontraron resultados para la consulta"
)

// Querier runs a SQL query and renders the rows as text. Implemented by the
// database package; kept as an interface so tests can stand in for MySQL.
type Querier interface {
	Query(ctx context.Context, query string) (string, error)
}

// NewReportTool builds the SQL passthrough tool. Both the rendered rows and
// any execution failure come back as plain strings: the observation is fed
// to the model either way so it can explain the outcome to the user.
func NewReportTool(db Querier) Descriptor {
	return Descriptor{
		Name:        ReportToolName,
		Description: "Ejecuta una consulta SQL en la base de datos de alumnos y cursadas",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": {
					Type:        jsonschema.String,
					Description: "La consulta SQL a ejecutar. Ej: SELECT * FROM alumnos. Usar aliases para las tablas en JOINs.",
				},
			},
			Required: []string{"query"},
		},
		Execute: func(ctx context.Context, args map[string]any) string {
			query, _ := args["query"].(string)
			output, err := db.Query(ctx, query)
			if err != nil {
				return fmt.Sprintf("Error al ejecutar la consulta: %v", err)
			}
			if output == "" {
				return noResultsMessage
			}
			return output
		},
	}
}
