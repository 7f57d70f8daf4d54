package dto

type RebuildCorpusRequest struct {
	// Fresh clears the corpus before ingesting. Without it a missing corpus
	// is built and an existing one is left alone.
	Fresh bool `json:"fresh"`
}

type RebuildCorpusResponse struct {
	RequestId string `json:"request_id"`
	Corpus    string `json:"corpus"`
	Fresh     bool   `json:"fresh"`
}

type SearchCorpusRequest struct {
	Query string `query:"q" validate:"required"`
	K     int    `query:"k" validate:"omitempty,min=1,max=50"`
}

type PassageResponse struct {
	Text     string  `json:"text"`
	SourceId string  `json:"source_id"`
	Score    float64 `json:"score"`
}

type SearchCorpusResponse struct {
	Corpus   string            `json:"corpus"`
	Query    string            `json:"query"`
	Passages []PassageResponse `json:"passages"`
}

type CorpusStatusResponse struct {
	Corpus    string `json:"corpus"`
	Backend   string `json:"backend"`
	Exists    bool   `json:"exists"`
	Ephemeral bool   `json:"ephemeral"`
	Entries   int    `json:"entries"`
}

// PublishCorpusBuildMessage is the payload on the corpus build topic.
type PublishCorpusBuildMessage struct {
	RequestId string `json:"request_id"`
	Corpus    string `json:"corpus"`
	SourceDir string `json:"source_dir"`
	Fresh     bool   `json:"fresh"`
}
