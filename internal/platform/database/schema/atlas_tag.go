package schema

// AtlasTagTable represents the 'atlas.tags' table
type AtlasTagTable struct {
	Table string
	ID    string
	Label string
}

// AtlasTag is the schema definition for atlas.tags
var AtlasTag = AtlasTagTable{
	Table: "atlas.tags",
	ID:    "tagid",
	Label: "taglabel",
}
