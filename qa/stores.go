package qa

import "context"

// Domain status literals used by the community backoffice. The pipeline
// reads the tables as-is and never writes them.
const (
	statusActive  = "正常"
	statusEnabled = "启用"
)

type Owner struct {
	ID   int64
	Name string
	Type string
}

// Residence is a house joined through its active ownership link. Numeric
// columns arrive pre-formatted as text; empty means the column was null.
type Residence struct {
	HouseID      int64
	RoomNo       string
	Layout       string
	BuildingArea string
}

type Vehicle struct {
	Plate string
	Brand string
	Model string
	Type  string
}

type MeterReading struct {
	Category string
	Reading  string
	Unit     string
}

// Document is a knowledge-base record. Externally authored; read-only here.
type Document struct {
	ID          int64
	Title       string
	Category    string
	Description string
	Tags        string
	FilePath    string
	FileType    string
}

type OwnerStore interface {
	// Owner returns nil without error when the id is unknown.
	Owner(ctx context.Context, id int64) (*Owner, error)
}

type ResidenceStore interface {
	ActiveResidences(ctx context.Context, ownerID int64, limit int) ([]Residence, error)
	// PrimaryResidence returns nil without error when the owner has no
	// primary active residence link.
	PrimaryResidence(ctx context.Context, ownerID int64) (*Residence, error)
	CountActiveResidences(ctx context.Context, ownerID int64) (int64, error)
}

type VehicleStore interface {
	ActiveVehicles(ctx context.Context, ownerID int64, limit int) ([]Vehicle, error)
}

type MeterStore interface {
	ActiveMeters(ctx context.Context, houseID int64, limit int) ([]MeterReading, error)
}

type KnowledgeStore interface {
	// EnabledDocuments lists enabled knowledge records ordered by
	// descending popularity. With keywords it keeps only documents whose
	// title, description, or tags contain any keyword; without keywords
	// every enabled document is eligible.
	EnabledDocuments(ctx context.Context, keywords []string, limit int) ([]Document, error)
}

// FileFetcher resolves a document's remote file to decoded text.
type FileFetcher interface {
	Fetch(ctx context.Context, id int64, url, fileType string) (string, error)
}
