package schema

// AtlasCategoryTable represents the 'atlas.categories' table
type AtlasCategoryTable struct {
	Table string
	ID    string
	Label string
}

// AtlasCategory is the schema definition for atlas.categories
var AtlasCategory = AtlasCategoryTable{
	Table: "atlas.categories",
	ID:    "categoryid",
	Label: "categorylabel",
}
