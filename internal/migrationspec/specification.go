package migrationspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileNameConstant is the migration definition file inside a migration directory.
	FileNameConstant = "herd.yml"

	// AdapterTypeGitHub selects the GitHub adapter.
	AdapterTypeGitHub = "github"

	// SearchTypeCode discovers repositories through GitHub code search.
	SearchTypeCode = "code"
	// SearchTypeRepositories discovers repositories through GitHub repository search.
	SearchTypeRepositories = "repositories"
	// SearchTypeOrganization lists every repository of an organization.
	SearchTypeOrganization = "organization"

	loadErrorTemplateConstant             = "load migration %s: %w"
	parseErrorTemplateConstant            = "parse migration %s: %w"
	validationErrorTemplateConstant       = "invalid migration: %s %s"
	commandListDecodeTemplateConstant     = "line %d: hook must be a string or a list of strings"
	directoryRequiredMessageConstant      = "migration directory must be provided"
	requiredMessageConstant               = "is required"
	invalidBranchNameMessageConstant      = "must be a valid branch name"
	unsupportedAdapterTemplateConstant    = "must be %q"
	unsupportedSearchTypeTemplateConstant = "must be one of %q, %q or %q"
	queryRequiredTemplateConstant         = "is required when search_type is %q"
	organizationRequiredTemplateConstant  = "is required when search_type is %q"
	parentDirectoryReferenceConstant      = ".."
)

var branchNamePattern = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

// ErrDirectoryRequired indicates that Load was called without a migration directory.
var ErrDirectoryRequired = errors.New(directoryRequiredMessageConstant)

// ValidationError reports an invalid field of a migration definition.
type ValidationError struct {
	Field   string
	Message string
}

// Error describes the invalid field.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(validationErrorTemplateConstant, validationError.Field, validationError.Message)
}

// CommandList is an ordered list of shell commands. In YAML it may be written as a single string
// or as a sequence of strings.
type CommandList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (commands *CommandList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if decodeError := node.Decode(&single); decodeError != nil {
			return decodeError
		}
		if len(strings.TrimSpace(single)) == 0 {
			*commands = CommandList{}
			return nil
		}
		*commands = CommandList{single}
		return nil
	case yaml.SequenceNode:
		var multiple []string
		if decodeError := node.Decode(&multiple); decodeError != nil {
			return decodeError
		}
		*commands = CommandList(multiple)
		return nil
	default:
		return fmt.Errorf(commandListDecodeTemplateConstant, node.Line)
	}
}

// AdapterConfiguration selects the host adapter and how candidates are discovered.
type AdapterConfiguration struct {
	Type         string `yaml:"type"`
	Organization string `yaml:"org"`
	SearchType   string `yaml:"search_type"`
	SearchQuery  string `yaml:"search_query"`
}

// Hooks holds the shell commands of every phase.
type Hooks struct {
	ShouldMigrate      CommandList `yaml:"should_migrate"`
	PostCheckout       CommandList `yaml:"post_checkout"`
	Apply              CommandList `yaml:"apply"`
	PullRequestMessage CommandList `yaml:"pr_message"`
}

// Specification is a loaded migration definition.
type Specification struct {
	ID      string               `yaml:"id"`
	Title   string               `yaml:"title"`
	Adapter AdapterConfiguration `yaml:"adapter"`
	Hooks   Hooks                `yaml:"hooks"`

	// Directory is the absolute directory the definition was loaded from.
	Directory string `yaml:"-"`
}

// Load reads and validates <directory>/herd.yml.
func Load(directory string) (Specification, error) {
	trimmedDirectory := strings.TrimSpace(directory)
	if len(trimmedDirectory) == 0 {
		return Specification{}, ErrDirectoryRequired
	}
	absoluteDirectory, absoluteError := filepath.Abs(trimmedDirectory)
	if absoluteError != nil {
		return Specification{}, fmt.Errorf(loadErrorTemplateConstant, trimmedDirectory, absoluteError)
	}

	specificationPath := filepath.Join(absoluteDirectory, FileNameConstant)
	contents, readError := os.ReadFile(specificationPath)
	if readError != nil {
		return Specification{}, fmt.Errorf(loadErrorTemplateConstant, specificationPath, readError)
	}

	var specification Specification
	if parseError := yaml.Unmarshal(contents, &specification); parseError != nil {
		return Specification{}, fmt.Errorf(parseErrorTemplateConstant, specificationPath, parseError)
	}
	specification.Directory = absoluteDirectory
	specification.normalize()

	if validationError := specification.Validate(); validationError != nil {
		return Specification{}, validationError
	}
	return specification, nil
}

func (specification *Specification) normalize() {
	specification.ID = strings.TrimSpace(specification.ID)
	specification.Title = strings.TrimSpace(specification.Title)
	specification.Adapter.Type = strings.ToLower(strings.TrimSpace(specification.Adapter.Type))
	specification.Adapter.SearchType = strings.ToLower(strings.TrimSpace(specification.Adapter.SearchType))
	specification.Adapter.Organization = strings.TrimSpace(specification.Adapter.Organization)
	specification.Adapter.SearchQuery = strings.TrimSpace(specification.Adapter.SearchQuery)
	if len(specification.Adapter.SearchType) == 0 {
		specification.Adapter.SearchType = SearchTypeCode
	}
}

// Validate checks the fields herd relies on.
func (specification Specification) Validate() error {
	if len(specification.ID) == 0 {
		return ValidationError{Field: "id", Message: requiredMessageConstant}
	}
	if !branchNamePattern.MatchString(specification.ID) || strings.Contains(specification.ID, parentDirectoryReferenceConstant) {
		return ValidationError{Field: "id", Message: invalidBranchNameMessageConstant}
	}
	if len(specification.Title) == 0 {
		return ValidationError{Field: "title", Message: requiredMessageConstant}
	}
	if specification.Adapter.Type != AdapterTypeGitHub {
		return ValidationError{Field: "adapter.type", Message: fmt.Sprintf(unsupportedAdapterTemplateConstant, AdapterTypeGitHub)}
	}
	switch specification.Adapter.SearchType {
	case SearchTypeCode, SearchTypeRepositories:
		if len(specification.Adapter.SearchQuery) == 0 {
			return ValidationError{Field: "adapter.search_query", Message: fmt.Sprintf(queryRequiredTemplateConstant, specification.Adapter.SearchType)}
		}
	case SearchTypeOrganization:
		if len(specification.Adapter.Organization) == 0 {
			return ValidationError{Field: "adapter.org", Message: fmt.Sprintf(organizationRequiredTemplateConstant, SearchTypeOrganization)}
		}
	default:
		return ValidationError{
			Field:   "adapter.search_type",
			Message: fmt.Sprintf(unsupportedSearchTypeTemplateConstant, SearchTypeCode, SearchTypeRepositories, SearchTypeOrganization),
		}
	}
	if len(specification.Hooks.Apply) == 0 {
		return ValidationError{Field: "hooks.apply", Message: requiredMessageConstant}
	}
	return nil
}

// BranchName is the migration branch created in every repository.
func (specification Specification) BranchName() string {
	return specification.ID
}
