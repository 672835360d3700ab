package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/servermap/servermap/pkg/catalogs"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name        string
		serverName  string
		description string
		want        []catalogs.Category
	}{
		{
			name:        "database keywords",
			serverName:  "pg-helper",
			description: "Connect to postgres and mysql",
			want:        []catalogs.Category{catalogs.CategoryDatabase},
		},
		{
			name:        "multiple categories",
			serverName:  "cloud-files",
			description: "Sync files to aws cloud storage",
			want: []catalogs.Category{
				catalogs.CategoryFileSystem,
				catalogs.CategoryCloudServices,
			},
		},
		{
			name:        "name contributes keywords",
			serverName:  "slack-bridge",
			description: "",
			want:        []catalogs.Category{catalogs.CategoryCommunication},
		},
		{
			name:        "no match falls back to other",
			serverName:  "frobnicator",
			description: "does things",
			want:        []catalogs.Category{catalogs.CategoryOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.serverName, tt.description))
		})
	}
}

func TestOperations(t *testing.T) {
	tests := []struct {
		name  string
		tools []catalogs.Tool
		want  []catalogs.Operation
	}{
		{
			name: "read and write tools",
			tools: []catalogs.Tool{
				{Name: "get_record"},
				{Name: "update_record"},
			},
			want: []catalogs.Operation{catalogs.OperationRead, catalogs.OperationWrite},
		},
		{
			name: "first matching group wins per tool",
			tools: []catalogs.Tool{
				{Name: "list_search_indexes"}, // "list" beats "search"
			},
			want: []catalogs.Operation{catalogs.OperationRead},
		},
		{
			name:  "duplicate operations collapsed",
			tools: []catalogs.Tool{{Name: "run_script"}, {Name: "execute_sql"}},
			want:  []catalogs.Operation{catalogs.OperationExecute},
		},
		{
			name:  "no tools defaults to read",
			tools: nil,
			want:  []catalogs.Operation{catalogs.OperationRead},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Operations(tt.tools))
		})
	}
}
