package handler

import "encoding/json"

type unlockRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

type setLockRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

type projectRequest struct {
	Title    string  `json:"title" binding:"required"`
	Synopsis *string `json:"synopsis,omitempty"`
	Genre    *string `json:"genre,omitempty"`
}

type chapterRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type reorderChaptersRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required,dive,uuid"`
}

type characterRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Appearance  *string `json:"appearance,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type setPortraitRequest struct {
	GenerationID string `json:"generation_id" binding:"required,uuid"`
}

type updateSettingsRequest struct {
	Theme           string  `json:"theme" binding:"required"`
	EditorFont      string  `json:"editor_font" binding:"required"`
	AutosaveSeconds int     `json:"autosave_seconds"`
	TextProvider    string  `json:"text_provider" binding:"required"`
	TextModel       string  `json:"text_model" binding:"required"`
	TextTemperature float64 `json:"text_temperature"`
	TextMaxTokens   int     `json:"text_max_tokens"`
	ImageProvider   string  `json:"image_provider" binding:"required"`
	ImageModel      string  `json:"image_model" binding:"required"`
	ImageWidth      int     `json:"image_width"`
	ImageHeight     int     `json:"image_height"`
}

type generateTextRequest struct {
	ChapterID   *string `json:"chapter_id,omitempty" binding:"omitempty,uuid"`
	Instruction string  `json:"instruction" binding:"required"`
	ContextText string  `json:"context_text"`
	Stream      bool    `json:"stream"`
}

type generateIllustrationRequest struct {
	CharacterID    *string `json:"character_id,omitempty" binding:"omitempty,uuid"`
	Prompt         string  `json:"prompt" binding:"required"`
	EnhancedPrompt *string `json:"enhanced_prompt,omitempty"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	IsFree         bool    `json:"is_free"`
}

type createVersionRequest struct {
	ProjectID          string          `json:"project_id" binding:"required,uuid"`
	Type               string          `json:"type" binding:"required"`
	ParentVersionID    *string         `json:"parent_version_id,omitempty" binding:"omitempty,uuid"`
	BranchName         *string         `json:"branch_name,omitempty"`
	LinkedGenerationID *string         `json:"linked_generation_id,omitempty" binding:"omitempty,uuid"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Tags               []string        `json:"tags,omitempty"`
	AIParameters       json.RawMessage `json:"ai_parameters,omitempty"`
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	GenerationTimeMs   int64           `json:"generation_time_ms"`
	FileSizeBytes      int64           `json:"file_size_bytes"`
}

type retagStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type addTagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

type setBranchNameRequest struct {
	BranchName string `json:"branch_name" binding:"required"`
}

type linkGenerationRequest struct {
	GenerationID string `json:"generation_id" binding:"required,uuid"`
}

// paginatedResponse - стандартная обёртка для ответов со списком и курсором.
type paginatedResponse struct {
	Data       any    `json:"data"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type galleryResponse struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}
