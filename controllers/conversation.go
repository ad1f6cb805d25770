package controllers

import (
	"net/http"

	"OllamaDesk/models"
	svc "OllamaDesk/pkg/services"

	"github.com/gin-gonic/gin"
)

type messageBody struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createConversationBody struct {
	Title    *string       `json:"title"`
	Messages []messageBody `json:"messages"`
}

func messagesJSON(msgs []models.Message) []gin.H {
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gin.H{"role": m.Role, "content": m.Content})
	}
	return out
}

func ListConversations(conversations *svc.ConversationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		convs, err := conversations.List(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to load conversations"})
			return
		}

		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			result = append(result, gin.H{
				"id":       conv.ID,
				"title":    conv.Title,
				"summary":  conv.Summary,
				"messages": messagesJSON(conv.Messages),
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

func CreateConversation(conversations *svc.ConversationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body createConversationBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
			return
		}
		if body.Title == nil || body.Messages == nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "title and messages are required"})
			return
		}

		msgs := make([]svc.ChatMessage, 0, len(body.Messages))
		for _, m := range body.Messages {
			msgs = append(msgs, svc.ChatMessage{Role: m.Role, Content: m.Content})
		}

		conv, err := conversations.Create(c.Request.Context(), *body.Title, msgs)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create conversation"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":       conv.ID,
			"title":    conv.Title,
			"summary":  conv.Summary,
			"messages": messagesJSON(conv.Messages),
		})
	}
}
