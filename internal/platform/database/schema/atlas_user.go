package schema

// AtlasUserTable represents the 'atlas.users' table
type AtlasUserTable struct {
	Table          string
	ID             string
	Username       string
	Email          string
	HashedPassword string
	Salt           string
	IsAdmin        string
}

// AtlasUser is the schema definition for atlas.users
var AtlasUser = AtlasUserTable{
	Table:          "atlas.users",
	ID:             "userid",
	Username:       "username",
	Email:          "email",
	HashedPassword: "hashedpassword",
	Salt:           "salt",
	IsAdmin:        "is_admin",
}
