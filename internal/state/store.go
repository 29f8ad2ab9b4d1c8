package state

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/herd/internal/adapter"
)

const (
	// FileNameConstant is the name of the enrolled list inside a migration working directory.
	FileNameConstant = "repos.yml"

	storePathRequiredMessageConstant   = "state file path is required"
	readStateErrorTemplateConstant     = "read enrolled repositories %s: %w"
	decodeStateErrorTemplateConstant   = "decode enrolled repositories %s: %w"
	encodeStateErrorTemplateConstant   = "encode enrolled repositories: %w"
	writeStateErrorTemplateConstant    = "write enrolled repositories %s: %w"
	temporaryFilePatternSuffixConstant = ".tmp.*"
	stateDirectoryPermissionsConstant  = 0o755
	stateFilePermissionsConstant       = 0o644
	yamlIndentationWidthConstant       = 2
)

// ErrStorePathRequired indicates that a FileStore was constructed without a path.
var ErrStorePathRequired = errors.New(storePathRequiredMessageConstant)

type stateDocument struct {
	Repositories []adapter.Repository `yaml:"repositories"`
}

// FileStore reads and writes the enrolled list as a YAML document.
type FileStore struct {
	filePath string
}

// NewFileStore constructs a FileStore for the given file.
func NewFileStore(filePath string) (*FileStore, error) {
	if len(strings.TrimSpace(filePath)) == 0 {
		return nil, ErrStorePathRequired
	}
	return &FileStore{filePath: filePath}, nil
}

// Path returns the location of the state file.
func (store *FileStore) Path() string {
	return store.filePath
}

// Load returns the stored repositories and whether the file existed.
func (store *FileStore) Load() ([]adapter.Repository, bool, error) {
	contents, readError := os.ReadFile(store.filePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf(readStateErrorTemplateConstant, store.filePath, readError)
	}

	var document stateDocument
	if decodeError := yaml.Unmarshal(contents, &document); decodeError != nil {
		return nil, true, fmt.Errorf(decodeStateErrorTemplateConstant, store.filePath, decodeError)
	}
	if document.Repositories == nil {
		document.Repositories = []adapter.Repository{}
	}
	return document.Repositories, true, nil
}

// Save replaces the stored list. The file is written to a temporary sibling, synced and renamed
// so readers never observe a partial document.
func (store *FileStore) Save(repositories []adapter.Repository) error {
	if repositories == nil {
		repositories = []adapter.Repository{}
	}

	var encoded bytes.Buffer
	encoder := yaml.NewEncoder(&encoded)
	encoder.SetIndent(yamlIndentationWidthConstant)
	if encodeError := encoder.Encode(stateDocument{Repositories: repositories}); encodeError != nil {
		return fmt.Errorf(encodeStateErrorTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(encodeStateErrorTemplateConstant, closeError)
	}

	if writeError := writeFileAtomically(store.filePath, encoded.Bytes()); writeError != nil {
		return fmt.Errorf(writeStateErrorTemplateConstant, store.filePath, writeError)
	}
	return nil
}

func writeFileAtomically(targetPath string, contents []byte) error {
	targetDirectory := filepath.Dir(targetPath)
	if mkdirError := os.MkdirAll(targetDirectory, stateDirectoryPermissionsConstant); mkdirError != nil {
		return mkdirError
	}

	temporaryFile, createError := os.CreateTemp(targetDirectory, filepath.Base(targetPath)+temporaryFilePatternSuffixConstant)
	if createError != nil {
		return createError
	}
	temporaryName := temporaryFile.Name()
	committed := false
	defer func() {
		_ = temporaryFile.Close()
		if !committed {
			_ = os.Remove(temporaryName)
		}
	}()

	if _, writeError := temporaryFile.Write(contents); writeError != nil {
		return writeError
	}
	if chmodError := temporaryFile.Chmod(stateFilePermissionsConstant); chmodError != nil {
		return chmodError
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		return syncError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return closeError
	}
	if renameError := os.Rename(temporaryName, targetPath); renameError != nil {
		return renameError
	}
	committed = true
	return nil
}
