// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/validation"
)

//go:embed activity-registry.json
var embedded []byte

var (
	defaultOnce sync.Once
	defaultReg  *ActivityRegistry
	defaultErr  error

	schemaMu sync.Mutex
	schemas  = map[string]*validation.Schema{}
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(embedded)
	})
	return defaultReg, defaultErr
}

// ValidateJobInput checks job variables against the input schema registered for the task
// type. Task types without a schema are accepted as is.
func ValidateJobInput(taskType string, variables []byte) error {
	schema, err := inputSchema(taskType)
	if err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	if schema == nil {
		return nil
	}

	result := schema.Validate(variables)
	if result.Valid {
		return nil
	}
	return errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
}

func inputSchema(taskType string) (*validation.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemas[taskType]; ok {
		return s, nil
	}

	reg, err := Default()
	if err != nil {
		return nil, err
	}
	activity, ok := reg.Find(taskType)
	if !ok || len(activity.InputSchema) == 0 {
		schemas[taskType] = nil
		return nil, nil
	}

	s, err := validation.CompileMap(activity.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("input schema for %s: %w", taskType, err)
	}
	schemas[taskType] = s
	return s, nil
}
