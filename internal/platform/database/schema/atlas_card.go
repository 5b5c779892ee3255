package schema

// AtlasCardTable represents the 'atlas.cards' table
type AtlasCardTable struct {
	Table         string
	ID            string
	UserID        string
	Name          string
	Title         string
	CategoryID    string
	Description   string
	Organization  string
	Funding       string
	Link          string
	Latitude      string
	Longitude     string
	ThumbnailLink string
	DatePosted    string
}

// AtlasCard is the schema definition for atlas.cards
var AtlasCard = AtlasCardTable{
	Table:         "atlas.cards",
	ID:            "cardid",
	UserID:        "userid",
	Name:          "name",
	Title:         "title",
	CategoryID:    "categoryid",
	Description:   "description",
	Organization:  "organization",
	Funding:       "funding",
	Link:          "link",
	Latitude:      "latitude",
	Longitude:     "longitude",
	ThumbnailLink: "thumbnail_link",
	DatePosted:    "dateposted",
}

// UniqueOwnerTitle is the constraint enforcing one card title per owner.
const UniqueOwnerTitle = "cards_userid_title_key"
