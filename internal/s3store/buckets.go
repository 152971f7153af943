package s3store

// Resource identifies a kind of stored file. Each resource maps to exactly
// one bucket.
type Resource string

const (
	// ResourceRadioPrograms holds the uploaded radio program MP3 files.
	ResourceRadioPrograms Resource = "radio_programs"
)

// Buckets maps each resource to its S3 bucket name. The repository
// constructor and the LocalStack test infrastructure both consult this
// table, so tests always run against the buckets production code expects.
var Buckets = map[Resource]string{
	ResourceRadioPrograms: "radio-programs",
}
