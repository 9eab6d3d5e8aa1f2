package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/logger"
	"alfredoptarigan/interview-analyzer/internal/models"
)

type DocumentLoader interface {
	Load(dir string) ([]models.KnowledgeDocument, error)
}

type documentLoader struct {
	pdfParser PDFParserService
	log       *zap.Logger
}

// NewDocumentLoader reads .md and .txt files as UTF-8 text and extracts .pdf
// files. Everything else in the tree is ignored.
func NewDocumentLoader(pdfParser PDFParserService, log *zap.Logger) DocumentLoader {
	if pdfParser == nil {
		pdfParser = NewPDFParserService()
	}
	return &documentLoader{
		pdfParser: pdfParser,
		log:       logger.WithComponent(log, "document-loader"),
	}
}

// Load implements DocumentLoader. A missing directory is an empty corpus.
// Documents are returned in lexical path order.
func (d *documentLoader) Load(dir string) ([]models.KnowledgeDocument, error) {
	docs := []models.KnowledgeDocument{}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		d.log.Warn("knowledge base directory not found", zap.String("path", dir))
		return docs, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt", ".pdf":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk knowledge base: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		text, err := d.read(path)
		if err != nil {
			d.log.Warn("skipping unreadable document", zap.String("path", path), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, models.KnowledgeDocument{Source: filepath.ToSlash(rel), Text: text})
	}

	d.log.Info("knowledge base loaded", zap.String("path", dir), zap.Int("documents", len(docs)))
	return docs, nil
}

func (d *documentLoader) read(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return d.pdfParser.ExtractText(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}
