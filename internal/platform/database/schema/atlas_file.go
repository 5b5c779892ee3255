package schema

// AtlasFileTable represents the 'atlas.files' table
type AtlasFileTable struct {
	Table         string
	ID            string
	CardID        string
	FileName      string
	DirectoryPath string
	FileLink      string
	FileSize      string
	FileExtension string
}

// AtlasFile is the schema definition for atlas.files
var AtlasFile = AtlasFileTable{
	Table:         "atlas.files",
	ID:            "fileid",
	CardID:        "cardid",
	FileName:      "filename",
	DirectoryPath: "directorypath",
	FileLink:      "filelink",
	FileSize:      "filesize",
	FileExtension: "fileextension",
}
