package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/studio_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateCrewMember(c *gin.Context) {
	var input models.NewCrewMember
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	member, err := models.CreateCrewMember(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func UpdateCrewMember(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCrewMember
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	member, err := models.UpdateCrewMember(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func GetCrewMember(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	member, err := models.GetCrewMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func ListCrewMembers(c *gin.Context) {
	members, err := models.ListCrewMembers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
