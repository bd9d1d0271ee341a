package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"neuraresume/internal/errors"
	"neuraresume/internal/types"
	"neuraresume/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	maxSize int64
	logger  *errors.Logger
}

// NewFileProcessor creates a new file processor. Input files larger than
// maxSize bytes are rejected; zero disables the check.
func NewFileProcessor(maxSize int64, logger *errors.Logger) *FileProcessor {
	return &FileProcessor{maxSize: maxSize, logger: logger}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
		if _, statErr := os.Stat(filename); os.IsNotExist(statErr) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewValidationError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return content, nil
}

// ReadText reads a text file such as a job description
func (fp *FileProcessor) ReadText(filename string) (string, error) {
	if !utils.IsTextFile(filename) {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}
	content, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// ReadResume reads a resume file. PDF documents are returned as an upload,
// anything else as plain text.
func (fp *FileProcessor) ReadResume(filename string) (string, *types.FileUpload, error) {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return "", nil, err
	}
	if utils.IsPDFFile(filename) || utils.LooksLikePDF(content) {
		return "", &types.FileUpload{Name: filepath.Base(filename), Data: content}, nil
	}
	if !utils.IsTextFile(filename) {
		fp.logger.Warn("Resume file is neither PDF nor a known text type, reading as text",
			"filename", filename)
	}
	return string(content), nil, nil
}

// ResumeText returns the plain text of a resume file, extracting it from
// PDF documents
func (fp *FileProcessor) ResumeText(filename string) (string, error) {
	text, upload, err := fp.ReadResume(filename)
	if err != nil || upload == nil {
		return text, err
	}
	text, err = utils.ExtractPDFText(upload.Data)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidPDF,
			fmt.Sprintf("Cannot extract text from %s", filename), err)
	}
	return text, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, content, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
