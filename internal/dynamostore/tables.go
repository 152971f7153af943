package dynamostore

// Model identifies a stored record kind. Each model maps to exactly one
// table.
type Model string

const (
	// ModelRadioPrograms holds the radio program metadata records.
	ModelRadioPrograms Model = "radio_programs"
)

// TableSpec describes a table and its key schema. The repository and the
// LocalStack test infrastructure both consult Tables, so tests create
// exactly the tables production code expects.
type TableSpec struct {
	TableName    string
	KeyAttribute string
	// Provisioned capacity used when the test infrastructure creates the
	// table; production tables are managed outside this codebase.
	ReadCapacityUnits  int64
	WriteCapacityUnits int64
}

// Tables maps each model to its table spec.
var Tables = map[Model]TableSpec{
	ModelRadioPrograms: {
		TableName:          "radio_programs",
		KeyAttribute:       "id",
		ReadCapacityUnits:  5,
		WriteCapacityUnits: 5,
	},
}
