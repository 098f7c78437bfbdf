package models

import "time"

type ContextType string

const (
	ContextGeneralChat     ContextType = "general_chat"
	ContextResearch        ContextType = "research"
	ContextBlogCreation    ContextType = "blog_creation"
	ContextVideoProcessing ContextType = "video_processing"
	ContextCodeWriting     ContextType = "code_writing"
)

type ThreadInfo struct {
	ID             string      `json:"thread_id"`
	Title          string      `json:"title"`
	ContextType    ContextType `json:"context_type"`
	TaskType       string      `json:"task_type"`
	CreatedAt      time.Time   `json:"created_at"`
	LastActivityAt time.Time   `json:"last_activity_at"`
	IsArchived     bool        `json:"is_archived"`
}
