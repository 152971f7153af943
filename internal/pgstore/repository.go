package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/dbx"
	"github.com/dmitrijs2005/audioapi/internal/logging"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

const programColumns = "id, title, description, air_date, spotify_playlist, file_name, file_url, program_length"

// Repository stores program records in the programs table. Its contract
// mirrors the DynamoDB repository: absent records surface as
// common.ErrItemNotFound and every other failure wraps common.ErrDBClient.
type Repository struct {
	db  dbx.DBTX
	log logging.Logger
}

var _ programs.Repository = (*Repository)(nil)

func NewRepository(db dbx.DBTX, log logging.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// scanProgram reads one row in programColumns order. The file reference is
// reassembled only when a file name is present.
func scanProgram(row interface{ Scan(dest ...any) error }) (*programs.Program, error) {
	p := &programs.Program{}
	var fileName, fileURL *string
	var programLength *int64

	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.AirDate, &p.SpotifyPlaylist,
		&fileName, &fileURL, &programLength)
	if err != nil {
		return nil, err
	}

	if fileName != nil {
		p.RadioProgram = &programs.ProgramFile{FileName: *fileName}
		if fileURL != nil {
			p.RadioProgram.FileURL = *fileURL
		}
		p.RadioProgram.ProgramLength = programLength
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*programs.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		}
		r.log.Error(ctx, "failed to select program", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}
	return p, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]*programs.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}
	defer rows.Close()

	result := []*programs.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}
	return result, nil
}

func (r *Repository) Put(ctx context.Context, create *programs.ProgramCreate) (*programs.Program, error) {
	query := `INSERT INTO programs (` + programColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	p := &programs.Program{
		ID:              uuid.NewString(),
		Title:           create.Title,
		Description:     create.Description,
		AirDate:         create.AirDate,
		SpotifyPlaylist: create.SpotifyPlaylist,
		RadioProgram:    create.RadioProgram,
	}

	var fileName, fileURL *string
	var programLength *int64
	if p.RadioProgram != nil {
		fileName = &p.RadioProgram.FileName
		fileURL = &p.RadioProgram.FileURL
		programLength = p.RadioProgram.ProgramLength
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Description, p.AirDate, p.SpotifyPlaylist,
		fileName, fileURL, programLength)
	if err != nil {
		r.log.Error(ctx, "failed to insert program", "id", p.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}

	return p, nil
}

// Update applies only the non-nil fields of the update. File reference
// leaves follow the same filtering as the partial-update expression on the
// key-value backend: empty name/url and nil length are left untouched.
func (r *Repository) Update(ctx context.Context, id string, update *programs.ProgramUpdate) (*programs.Program, error) {
	assignments := []string{}
	args := []any{}

	addAssignment := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		addAssignment("title", *update.Title)
	}
	if update.Description != nil {
		addAssignment("description", *update.Description)
	}
	if update.AirDate != nil {
		addAssignment("air_date", *update.AirDate)
	}
	if update.SpotifyPlaylist != nil {
		addAssignment("spotify_playlist", *update.SpotifyPlaylist)
	}
	if file := update.RadioProgram; file != nil {
		if file.FileName != "" {
			addAssignment("file_name", file.FileName)
		}
		if file.FileURL != "" {
			addAssignment("file_url", file.FileURL)
		}
		if file.ProgramLength != nil {
			addAssignment("program_length", *file.ProgramLength)
		}
	}

	if len(assignments) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE programs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(assignments, ", "), len(args), programColumns)

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM programs WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDBClient, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
	}
	return nil
}
