// Package records holds the paper and cluster records supplied by the data layer.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// ErrNoPapers is returned when a papers document has no "papers" key.
var ErrNoPapers = errors.New("records: document has no papers array")

// Paper is one item record. Coordinates and cluster id are nullable upstream.
type Paper struct {
	ID            int      `json:"id"`
	Title         *string  `json:"title"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
	Z             *float64 `json:"z"`
	ClusterID     *int     `json:"cluster_id"`
	ClusterLabel  *string  `json:"cluster_label"`
	FieldSubfield *string  `json:"field_subfield"`
	Year          *int     `json:"publication_year"`
	Class         *string  `json:"classification"`
}

// Cluster describes one cluster of papers.
type Cluster struct {
	ClusterID   int    `json:"cluster_id"`
	Label       string `json:"cluster_label"`
	MemberCount int    `json:"count"`
	Color       string `json:"color"`
}

type papersDoc struct {
	Papers *[]Paper `json:"papers"`
}

type clustersDoc struct {
	Clusters []Cluster `json:"clusters"`
}

// Valid reports whether the paper can be placed: it needs x, y and a cluster id.
func (p Paper) Valid() bool {
	return p.X != nil && p.Y != nil && p.ClusterID != nil
}

// Coords returns the original-space coordinates; a missing z is 0.
func (p Paper) Coords() [3]float64 {
	var c [3]float64
	if p.X != nil {
		c[0] = *p.X
	}
	if p.Y != nil {
		c[1] = *p.Y
	}
	if p.Z != nil {
		c[2] = *p.Z
	}
	return c
}

// Label is the display label of the paper.
func (p Paper) Label() string {
	if p.Title != nil && *p.Title != "" {
		return *p.Title
	}
	return fmt.Sprintf("Paper %d", p.ID)
}

// Category prefers the field/subfield and falls back to the classification.
func (p Paper) Category() string {
	if p.FieldSubfield != nil && *p.FieldSubfield != "" {
		return *p.FieldSubfield
	}
	if p.Class != nil {
		return *p.Class
	}
	return ""
}

// PublicationYear returns the year or 0 when unknown.
func (p Paper) PublicationYear() int {
	if p.Year == nil {
		return 0
	}
	return *p.Year
}

// DecodePapers reads a `{"papers": [...]}` document.
func DecodePapers(r io.Reader) ([]Paper, error) {
	var doc papersDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("papers parse: %w", err)
	}
	if doc.Papers == nil {
		return nil, ErrNoPapers
	}
	return *doc.Papers, nil
}

// DecodeClusters reads a `{"clusters": [...]}` document, sorted by cluster id.
func DecodeClusters(r io.Reader) ([]Cluster, error) {
	var doc clustersDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("clusters parse: %w", err)
	}
	sort.Slice(doc.Clusters, func(i, j int) bool {
		return doc.Clusters[i].ClusterID < doc.Clusters[j].ClusterID
	})
	return doc.Clusters, nil
}

// LoadPapers reads a papers file from disk.
func LoadPapers(path string) ([]Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePapers(f)
}

// LoadClusters reads a clusters file from disk. A missing path yields no clusters;
// the builder then derives them from the papers.
func LoadClusters(path string) ([]Cluster, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeClusters(f)
}

// Selection is a set of selected cluster ids. The empty selection selects everything.
type Selection map[int]bool

// NewSelection builds a selection from ids.
func NewSelection(ids ...int) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Includes reports whether clusterID is selected.
func (s Selection) Includes(clusterID int) bool {
	if len(s) == 0 {
		return true
	}
	return s[clusterID]
}
