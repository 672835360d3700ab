package catalogs

import "slices"

// Category classifies what an MCP server integrates with.
type Category string

// String returns the string representation of a Category.
func (c Category) String() string {
	return string(c)
}

// Server categories.
const (
	CategoryDatabase         Category = "database"
	CategoryFileSystem       Category = "file_system"
	CategoryAPIIntegration   Category = "api_integration"
	CategoryDevelopmentTools Category = "development_tools"
	CategoryDataProcessing   Category = "data_processing"
	CategoryCloudServices    Category = "cloud_services"
	CategoryCommunication    Category = "communication"
	CategoryAuthentication   Category = "authentication"
	CategoryMonitoring       Category = "monitoring"
	CategorySearch           Category = "search"
	CategoryAIML             Category = "ai_ml"
	CategoryOther            Category = "other"
)

// Categories returns all defined categories.
func Categories() []Category {
	return []Category{
		CategoryDatabase,
		CategoryFileSystem,
		CategoryAPIIntegration,
		CategoryDevelopmentTools,
		CategoryDataProcessing,
		CategoryCloudServices,
		CategoryCommunication,
		CategoryAuthentication,
		CategoryMonitoring,
		CategorySearch,
		CategoryAIML,
		CategoryOther,
	}
}

// IsValid returns true if the category is one of the defined constants.
func (c Category) IsValid() bool {
	return slices.Contains(Categories(), c)
}

// Operation classifies how an MCP server operates on data.
type Operation string

// String returns the string representation of an Operation.
func (o Operation) String() string {
	return string(o)
}

// Server operations.
const (
	OperationRead      Operation = "read"
	OperationWrite     Operation = "write"
	OperationQuery     Operation = "query"
	OperationExecute   Operation = "execute"
	OperationTransform Operation = "transform"
	OperationAnalyze   Operation = "analyze"
	OperationSync      Operation = "sync"
	OperationStream    Operation = "stream"
)

// Operations returns all defined operations.
func Operations() []Operation {
	return []Operation{
		OperationRead,
		OperationWrite,
		OperationQuery,
		OperationExecute,
		OperationTransform,
		OperationAnalyze,
		OperationSync,
		OperationStream,
	}
}

// IsValid returns true if the operation is one of the defined constants.
func (o Operation) IsValid() bool {
	return slices.Contains(Operations(), o)
}
