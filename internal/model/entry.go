package model

// The content source returns three record kinds (agency, tag, size), each
// with a stable external identifier. These types model the fields the
// migration pipeline actually consumes; everything else the API sends is
// ignored at the ingestion boundary. The dump stage serializes them to
// JSON files that the later stages read back.

// EntryRef is a reference to another entry by external id.
type EntryRef struct {
	ID string `json:"id"`
}

// AssetRef is a reference to an attached binary asset.
type AssetRef struct {
	ID          string `json:"id"`
	URL         string `json:"url"` // may be protocol-relative
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// AgencyEntry is an agency record from the content source.
type AgencyEntry struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	URL     string     `json:"url"`
	Founded int        `json:"founded,omitempty"` // 0 when absent
	Logo    *AssetRef  `json:"logo,omitempty"`
	SizeRef *EntryRef  `json:"size,omitempty"`
	TagRefs []EntryRef `json:"tags,omitempty"`
}

// TagEntry is a tag record from the content source.
type TagEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SizeEntry is a size record from the content source.
type SizeEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ImageMapEntry maps a source record's asset reference to the filename the
// dump stage stored it under. The SQL generator resolves logo URLs through
// this index.
type ImageMapEntry struct {
	AgencyID    string `json:"agencyId"`
	AgencyName  string `json:"agencyName"`
	LogoID      string `json:"logoId"`
	FileName    string `json:"fileName"`
	OriginalURL string `json:"originalUrl"`
	ContentType string `json:"contentType"`
}
