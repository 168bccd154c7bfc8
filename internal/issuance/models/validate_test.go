package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/tabular"
)

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name    string
		row     tabular.Row
		want    Recipient
		wantErr error
	}{
		{
			name: "valid row defaults program",
			row:  tabular.Row{"Name": "Ann Lee", "Email": "ann@x.com"},
			want: Recipient{Name: "Ann Lee", Email: "ann@x.com", Program: DefaultProgram},
		},
		{
			name: "explicit program kept",
			row:  tabular.Row{"Name": "Ann Lee", "Email": "ann@x.com", "Program": "Data Engineering"},
			want: Recipient{Name: "Ann Lee", Email: "ann@x.com", Program: "Data Engineering"},
		},
		{
			name: "name and email trimmed, email lower-cased",
			row:  tabular.Row{"Name": "  Ann Lee ", "Email": " Ann@X.Com "},
			want: Recipient{Name: "Ann Lee", Email: "ann@x.com", Program: DefaultProgram},
		},
		{
			name: "student name alias",
			row:  tabular.Row{"Student Name": "Bo Chen", "Email": "bo@x.com"},
			want: Recipient{Name: "Bo Chen", Email: "bo@x.com", Program: DefaultProgram},
		},
		{
			name: "snake case alias, any key casing",
			row:  tabular.Row{"STUDENT_NAME": "Bo Chen", "EMAIL": "bo@x.com", "program": "ML"},
			want: Recipient{Name: "Bo Chen", Email: "bo@x.com", Program: "ML"},
		},
		{
			name:    "empty name rejected",
			row:     tabular.Row{"Name": "", "Email": "a@b.com"},
			wantErr: ErrMissingName,
		},
		{
			name:    "whitespace-only name rejected",
			row:     tabular.Row{"Name": "   ", "Email": "a@b.com"},
			wantErr: ErrMissingName,
		},
		{
			name:    "absent email rejected",
			row:     tabular.Row{"Name": "Bo"},
			wantErr: ErrMissingEmail,
		},
		{
			name:    "malformed email rejected",
			row:     tabular.Row{"Name": "Bo", "Email": "not-an-email"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "email without domain dot rejected",
			row:     tabular.Row{"Name": "Bo", "Email": "bo@host"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "empty row rejected on name",
			row:     tabular.Row{},
			wantErr: ErrMissingName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRow(tt.row)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRowNameAliasPriority(t *testing.T) {
	// "Name" outranks the other aliases when several are present.
	row := tabular.Row{"student_name": "Wrong", "Name": "Right", "Email": "a@b.com"}
	got, err := ValidateRow(row)
	require.NoError(t, err)
	assert.Equal(t, "Right", got.Name)
}

func TestValidateRowIsDeterministic(t *testing.T) {
	row := tabular.Row{"name": "Dup A", "NAME": "Dup B", "Email": "dup@x.com"}

	first, err := ValidateRow(row)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := ValidateRow(row)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidateRowIgnoresUnknownColumns(t *testing.T) {
	row := tabular.Row{"Name": "Ann", "Email": "ann@x.com", "Cohort": "2026", "Score": "98"}
	got, err := ValidateRow(row)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, DefaultProgram, got.Program)
}
