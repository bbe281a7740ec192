package onedrive

// RemoteFolder is the provider's folder metadata, fetched on demand and
// never persisted beyond the derived name/path fields.
type RemoteFolder struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	IsDeleted      bool           `json:"is_deleted"`
	PathCollection PathCollection `json:"path_collection"`
	ItemCollection ItemCollection `json:"item_collection"`
}

// PathCollection lists the folder's ancestors, root first.
type PathCollection struct {
	Entries []PathEntry `json:"entries"`
}

// PathEntry is one ancestor in a folder's path collection.
type PathEntry struct {
	Name string `json:"name"`
}

// ItemCollection lists the folder's direct children in provider order.
type ItemCollection struct {
	Entries []Item `json:"entries"`
}

// Item is a child of a folder. Type is "folder" or "file".
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// AccountInfo is the provider-side identity of the authenticated user.
type AccountInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
