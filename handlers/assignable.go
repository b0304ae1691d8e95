package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/studio_backend/models"
	"github.com/gin-gonic/gin"
)

// One handler pair per assignable entity. They all follow the same shape:
// bind, call the model op, map the error kind.

func CreateShoot(c *gin.Context) {
	var input models.NewShoot
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	shoot, err := models.CreateShoot(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shoot)
}

func UpdateShoot(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateShootInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	shoot, err := models.UpdateShoot(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shoot)
}

func CreateDeliverable(c *gin.Context) {
	var input models.NewDeliverable
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	deliverable, err := models.CreateDeliverable(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deliverable)
}

func UpdateDeliverable(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateDeliverableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	deliverable, err := models.UpdateDeliverable(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverable)
}

func CreateTask(c *gin.Context) {
	var input models.NewTask
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	task, err := models.CreateTask(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func UpdateTask(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	task, err := models.UpdateTask(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func CreateExpense(c *gin.Context) {
	var input models.NewExpense
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	expense, err := models.CreateExpense(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func UpdateExpense(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	expense, err := models.UpdateExpense(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
