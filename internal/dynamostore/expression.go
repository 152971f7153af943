package dynamostore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

// updateValues flattens a sparse update into the attribute values to write.
// Only fields the caller actually set appear in the result; inside the file
// reference, unset leaves are dropped the same way. Attributes missing from
// the result are never touched by the update expression, which is what
// keeps a partial update from wiping unrelated fields.
func updateValues(update *programs.ProgramUpdate) map[string]any {
	vals := map[string]any{}
	if update.Title != nil {
		vals["title"] = *update.Title
	}
	if update.Description != nil {
		vals["description"] = *update.Description
	}
	if update.AirDate != nil {
		vals["air_date"] = *update.AirDate
	}
	if update.SpotifyPlaylist != nil {
		vals["spotify_playlist"] = *update.SpotifyPlaylist
	}
	if update.RadioProgram != nil {
		file := map[string]any{}
		if update.RadioProgram.FileName != "" {
			file["file_name"] = update.RadioProgram.FileName
		}
		if update.RadioProgram.FileURL != "" {
			file["file_url"] = update.RadioProgram.FileURL
		}
		if update.RadioProgram.ProgramLength != nil {
			file["program_length"] = *update.RadioProgram.ProgramLength
		}
		vals["radio_program"] = file
	}
	return vals
}

// updateExpression holds the pieces of a DynamoDB SET expression built from
// a sparse update.
type updateExpression struct {
	expression string
	names      map[string]string
	values     map[string]types.AttributeValue
}

// buildUpdateExpression turns the non-nil fields of update into a SET
// expression with attribute-name and attribute-value placeholders.
// Attributes are sorted so the expression is deterministic.
func buildUpdateExpression(update *programs.ProgramUpdate) (*updateExpression, error) {
	vals := updateValues(update)

	attrs := make([]string, 0, len(vals))
	for name := range vals {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)

	expr := &updateExpression{
		names:  make(map[string]string, len(attrs)),
		values: make(map[string]types.AttributeValue, len(attrs)),
	}
	sets := make([]string, 0, len(attrs))
	for _, name := range attrs {
		av, err := attributevalue.Marshal(vals[name])
		if err != nil {
			return nil, fmt.Errorf("marshaling attribute %s: %w", name, err)
		}
		expr.names["#"+name] = name
		expr.values[":"+name] = av
		sets = append(sets, fmt.Sprintf("#%s = :%s", name, name))
	}
	expr.expression = "SET " + strings.Join(sets, ", ")

	return expr, nil
}
