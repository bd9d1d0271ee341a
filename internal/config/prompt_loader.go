package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptScope pairs a configured prompt block with the place its file contents go
type promptScope struct {
	name   string
	config *PromptConfig
	target *LoadedPrompts
}

func (c *Config) promptScopes() []promptScope {
	return []promptScope{
		{"global", &c.AI.CustomPrompts, &c.prompts.Global},
		{"analyze", &c.AI.Analyze.CustomPrompts, &c.prompts.Analyze},
		{"answers", &c.AI.Answers.CustomPrompts, &c.prompts.Answers},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	if err := c.validatePromptFiles(); err != nil {
		return err
	}

	total := 0
	for _, scope := range c.promptScopes() {
		scope.target.System = map[PromptKind]string{}
		scope.target.User = map[PromptKind]string{}

		for _, kind := range PromptKinds {
			if path := scope.config.SystemPrompts.File(kind); path != "" {
				content, err := loadPromptFromFile(path, "system", scope.name, kind)
				if err != nil {
					return err
				}
				scope.target.System[kind] = content
			}
			if path := scope.config.UserPrompts.File(kind); path != "" {
				content, err := loadPromptFromFile(path, "user", scope.name, kind)
				if err != nil {
					return err
				}
				scope.target.User[kind] = content
			}
		}
		total += scope.target.count()
	}

	if total == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", total)
	}
	return nil
}

// loadPromptFromFile reads and trims a prompt file
func loadPromptFromFile(filePath, promptType, scope string, kind PromptKind) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s %s prompt file '%s': %w", scope, promptType, kind, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s %s prompt file '%s': %w", scope, promptType, kind, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s %s prompt file '%s' is empty", scope, promptType, kind, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s %s prompt from file: %s (%d characters)",
		scope, promptType, kind, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles reports every configured prompt file that does not exist
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	check := func(path, promptType, scope string, kind PromptKind) {
		if path == "" {
			return
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s %s prompt: %s", scope, promptType, kind, path))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s %s prompt file not found: %s", scope, promptType, kind, absPath))
		}
	}

	for _, scope := range c.promptScopes() {
		for _, kind := range PromptKinds {
			check(scope.config.SystemPrompts.File(kind), "system", scope.name, kind)
			check(scope.config.UserPrompts.File(kind), "user", scope.name, kind)
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
