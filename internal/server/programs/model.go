// Package programs contains the radio program domain model and the use-case
// service that composes the metadata store and the object store into
// program-level CRUD operations.
package programs

// ProgramFile is the file reference embedded in a Program. It has no
// identity of its own: it is created, replaced and deleted only as a side
// effect of Program operations.
type ProgramFile struct {
	FileName      string `json:"file_name" dynamodbav:"file_name"`
	FileURL       string `json:"file_url" dynamodbav:"file_url"`
	ProgramLength *int64 `json:"program_length,omitempty" dynamodbav:"program_length,omitempty"`
}

// Program is the domain entity: metadata plus one associated audio file
// reference. The ID is generated by the metadata store at creation time and
// never changes afterwards.
type Program struct {
	ID              string       `json:"id" dynamodbav:"id"`
	Title           string       `json:"title" dynamodbav:"title"`
	Description     *string      `json:"description,omitempty" dynamodbav:"description,omitempty"`
	AirDate         *string      `json:"air_date,omitempty" dynamodbav:"air_date,omitempty"`
	SpotifyPlaylist *string      `json:"spotify_playlist,omitempty" dynamodbav:"spotify_playlist,omitempty"`
	RadioProgram    *ProgramFile `json:"radio_program,omitempty" dynamodbav:"radio_program,omitempty"`
}

// ProgramCreate carries the fields for a new Program. The file reference is
// filled in by the service after the upload succeeds, never by the caller.
type ProgramCreate struct {
	Title           string
	Description     *string
	AirDate         *string
	SpotifyPlaylist *string
	RadioProgram    *ProgramFile
}

// ProgramUpdate is a sparse update: nil fields are left untouched in the
// stored record. A non-nil RadioProgram replaces the whole file reference.
type ProgramUpdate struct {
	Title           *string
	Description     *string
	AirDate         *string
	SpotifyPlaylist *string
	RadioProgram    *ProgramFile
}
