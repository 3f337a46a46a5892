// Package mapping holds the hand-curated translation tables between the
// Bitrix CRM schema and the Belle Software scheduling schema: code tables for
// establishments/professionals/procedures, enumeration-option remaps between
// the lead and deal field spaces, the lead→deal field correspondence, and the
// pipeline routing table. Tables are built once at startup and are read-only
// afterwards, so they are safe for concurrent readers.
package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Route is the (category, stage) destination a promoted deal is created into.
type Route struct {
	CategoryID int    `yaml:"category"`
	StageID    string `yaml:"stage"`
}

type codeTableFile struct {
	// Codes maps the Belle code to the Bitrix list element id.
	Codes map[string]string `yaml:"codes"`
	// Names maps the Belle code to a display name, used for audit comments
	// and establishment validation warnings.
	Names map[string]string `yaml:"names"`
}

type enumRemapFile struct {
	Options map[string]string `yaml:"options"`
}

type tablesFile struct {
	Establishments codeTableFile            `yaml:"establishments"`
	Professionals  codeTableFile            `yaml:"professionals"`
	Procedures     struct {
		ByName map[string]string `yaml:"by_name"`
	} `yaml:"procedures"`
	EnumRemaps   map[string]enumRemapFile `yaml:"enum_remaps"`
	Fields       map[string]string        `yaml:"fields"`
	Routes       map[string]Route         `yaml:"routes"`
	DefaultRoute Route                    `yaml:"default_route"`
}

// Tables is the immutable set of translation tables. Construct with Load.
type Tables struct {
	establishments *CodeTable
	professionals  *CodeTable
	procedureIDs   map[string]string

	enumRemaps map[string]map[string]string
	fields     map[string]string

	routes       map[string]Route
	defaultRoute Route

	logger *logging.Logger
}

// Load builds the tables from the embedded defaults, overlaid with the YAML
// file at path when path is non-empty.
func Load(path string, logger *logging.Logger) (*Tables, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var f tablesFile
	if err := yaml.Unmarshal(defaultsYAML, &f); err != nil {
		return nil, fmt.Errorf("mapping: parse embedded defaults: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mapping: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("mapping: parse %s: %w", path, err)
		}
	}

	t := &Tables{
		establishments: newCodeTable("establishment", f.Establishments, logger),
		professionals:  newCodeTable("professional", f.Professionals, logger),
		procedureIDs:   f.Procedures.ByName,
		enumRemaps:     make(map[string]map[string]string, len(f.EnumRemaps)),
		fields:         f.Fields,
		routes:         f.Routes,
		defaultRoute:   f.DefaultRoute,
		logger:         logger,
	}
	for fieldID, remap := range f.EnumRemaps {
		t.enumRemaps[fieldID] = remap.Options
	}
	return t, nil
}

// Establishments returns the establishment code table.
func (t *Tables) Establishments() *CodeTable { return t.establishments }

// Professionals returns the professional code table.
func (t *Tables) Professionals() *CodeTable { return t.professionals }

// ProcedureIDByName returns the Bitrix element id registered for a Belle
// procedure name. A name without an entry passes through unchanged.
func (t *Tables) ProcedureIDByName(name string) string {
	if id, ok := t.procedureIDs[name]; ok {
		return id
	}
	if name != "" {
		t.logger.Warn("procedure name not mapped, passing through", "name", name)
	}
	return name
}

// RouteFor resolves the destination pipeline for an establishment code. It is
// total: unmapped codes fall back to the default route.
func (t *Tables) RouteFor(establishmentCode string) Route {
	if r, ok := t.routes[establishmentCode]; ok {
		return r
	}
	return t.defaultRoute
}
