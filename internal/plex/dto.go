package plex

// APIResponse wraps the MediaContainer for JSON unmarshaling
type APIResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}

// MediaContainer is the root container for Plex API responses
type MediaContainer struct {
	Size      int         `json:"size"`
	TotalSize int         `json:"totalSize,omitempty"`
	Directory []Directory `json:"Directory,omitempty"`
	Metadata  []Metadata  `json:"Metadata,omitempty"`
	Hub       []Hub       `json:"Hub,omitempty"`
}

// Directory represents a library section
type Directory struct {
	Key              string `json:"key"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	Art              string `json:"art,omitempty"`
	Thumb            string `json:"thumb,omitempty"`
	Composite        string `json:"composite,omitempty"`
	UpdatedAt        int64  `json:"updatedAt,omitempty"`
	ContentChangedAt int64  `json:"contentChangedAt,omitempty"`
}

// Hub is one aggregated feed entry; its Metadata children are
// heterogeneous, tagged by Type.
type Hub struct {
	Key           string     `json:"key"`
	HubIdentifier string     `json:"hubIdentifier,omitempty"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Size          int        `json:"size,omitempty"`
	Metadata      []Metadata `json:"Metadata,omitempty"`
}

// Tag is a name-carrying attribute (genre, country, director, writer)
type Tag struct {
	Tag string `json:"tag"`
}

// Role is one cast list entry
type Role struct {
	Tag   string `json:"tag"`
	Role  string `json:"role,omitempty"`
	Thumb string `json:"thumb,omitempty"`
}

// Metadata represents one tree node of the remote source: a movie, show,
// season, episode, clip, photo, playlist or folder.
type Metadata struct {
	RatingKey             string  `json:"ratingKey"`
	Key                   string  `json:"key"`
	FastKey               string  `json:"fastKey,omitempty"`
	ParentRatingKey       string  `json:"parentRatingKey,omitempty"`
	GrandparentRatingKey  string  `json:"grandparentRatingKey,omitempty"`
	GUID                  string  `json:"guid,omitempty"`
	Studio                string  `json:"studio,omitempty"`
	Type                  string  `json:"type"`
	Title                 string  `json:"title"`
	TitleSort             string  `json:"titleSort,omitempty"`
	GrandparentTitle      string  `json:"grandparentTitle,omitempty"`
	ParentTitle           string  `json:"parentTitle,omitempty"`
	Summary               string  `json:"summary,omitempty"`
	Tagline               string  `json:"tagline,omitempty"`
	Index                 int     `json:"index,omitempty"`
	ParentIndex           int     `json:"parentIndex,omitempty"`
	Rating                float64 `json:"rating,omitempty"`
	AudienceRating        float64 `json:"audienceRating,omitempty"`
	ViewCount             int     `json:"viewCount,omitempty"`
	ViewOffset            int     `json:"viewOffset,omitempty"` // milliseconds
	LastViewedAt          int64   `json:"lastViewedAt,omitempty"`
	Year                  int     `json:"year,omitempty"`
	Duration              int     `json:"duration,omitempty"` // milliseconds
	Thumb                 string  `json:"thumb,omitempty"`
	Art                   string  `json:"art,omitempty"`
	ParentThumb           string  `json:"parentThumb,omitempty"`
	GrandparentThumb      string  `json:"grandparentThumb,omitempty"`
	GrandparentArt        string  `json:"grandparentArt,omitempty"`
	OriginallyAvailableAt string  `json:"originallyAvailableAt,omitempty"`
	AddedAt               int64   `json:"addedAt,omitempty"`
	UpdatedAt             int64   `json:"updatedAt,omitempty"`
	LeafCount             int     `json:"leafCount,omitempty"`
	ViewedLeafCount       int     `json:"viewedLeafCount,omitempty"`
	PlaylistType          string  `json:"playlistType,omitempty"`
	Composite             string  `json:"composite,omitempty"`
	Genre                 []Tag   `json:"Genre,omitempty"`
	Country               []Tag   `json:"Country,omitempty"`
	Role                  []Role  `json:"Role,omitempty"`
	Media                 []Media `json:"Media,omitempty"`
}

// Media represents one media version of a node
type Media struct {
	ID            int    `json:"id"`
	Duration      int    `json:"duration,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	AspectRatio   any    `json:"aspectRatio,omitempty"` // server sends string or number
	AudioChannels int    `json:"audioChannels,omitempty"`
	AudioCodec    string `json:"audioCodec,omitempty"`
	VideoCodec    string `json:"videoCodec,omitempty"`
	Container     string `json:"container,omitempty"`
	Part          []Part `json:"Part,omitempty"`
}

// Part represents a media file part. Stream attributes are kept loosely
// typed; the server is inconsistent about numeric fields.
type Part struct {
	ID       int              `json:"id"`
	Key      string           `json:"key"`
	File     string           `json:"file,omitempty"`
	Duration int              `json:"duration,omitempty"`
	Size     int64            `json:"size,omitempty"`
	Stream   []map[string]any `json:"Stream,omitempty"`
}

// BrowseKey returns the container key used to list this node's
// children, preferring the server's pre-filtered fast key.
func (m Metadata) BrowseKey() string {
	if m.FastKey != "" {
		return m.FastKey
	}
	return m.Key
}

// UnwatchedLeaves returns the number of unwatched children of a
// container node, or 0 for leaves.
func (m Metadata) UnwatchedLeaves() int {
	if m.LeafCount == 0 {
		return 0
	}
	return m.LeafCount - m.ViewedLeafCount
}
