// Command schema-exporter writes the configuration schema of every
// registered gateway component to versioned JSON files. The output feeds
// flow editors and configuration validators that need to know which fields
// each component accepts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/Noaman7/BluemixPOC/component"
	"github.com/Noaman7/BluemixPOC/componentregistry"
)

func main() {
	outDir := flag.String("out", "./schemas", "Output directory for schemas")
	flag.Parse()

	registry := component.NewRegistry()
	if err := componentregistry.Register(registry); err != nil {
		log.Fatalf("Failed to register components: %v", err)
	}

	factories := registry.ListFactories()
	log.Printf("Found %d component types", len(factories))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		schema := exportSchema(name, factories[name])

		outFile := filepath.Join(*outDir, fmt.Sprintf("%s.v1.json", name))
		if err := writeJSONSchema(outFile, schema); err != nil {
			log.Fatalf("Failed to write schema for %s: %v", name, err)
		}
		log.Printf("  wrote %s", outFile)
	}
}

// ComponentSchema is the exported JSON Schema document for one component
type ComponentSchema struct {
	Schema      string                              `json:"$schema"`
	ID          string                              `json:"$id"`
	Type        string                              `json:"type"`
	Title       string                              `json:"title"`
	Description string                              `json:"description"`
	Properties  map[string]component.PropertySchema `json:"properties"`
	Required    []string                            `json:"required"`
	Metadata    ComponentMetadata                   `json:"x-component-metadata"`
}

// ComponentMetadata carries registry metadata alongside the schema
type ComponentMetadata struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Protocol string `json:"protocol"`
	Domain   string `json:"domain"`
	Version  string `json:"version"`
}

func exportSchema(name string, registration *component.Registration) ComponentSchema {
	required := registration.Schema.Required
	if required == nil {
		required = []string{}
	}

	return ComponentSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          fmt.Sprintf("https://github.com/Noaman7/BluemixPOC/schemas/%s.v1.json", name),
		Type:        "object",
		Title:       name,
		Description: registration.Description,
		Properties:  registration.Schema.Properties,
		Required:    required,
		Metadata: ComponentMetadata{
			Name:     registration.Name,
			Type:     registration.Type,
			Protocol: registration.Protocol,
			Domain:   registration.Domain,
			Version:  registration.Version,
		},
	}
}

func writeJSONSchema(path string, schema ComponentSchema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
