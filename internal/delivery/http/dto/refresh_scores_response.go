package dto

type RefreshScoresResponse struct {
	ScoresComputed int `json:"scores_computed"`
}

type RefreshEmbeddingsResponse struct {
	EmbeddingsRefreshed int `json:"embeddings_refreshed"`
}
