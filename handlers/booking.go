package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/studio_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateBooking(c *gin.Context) {
	var input models.NewBooking
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	booking, err := models.CreateBooking(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func UpdateBooking(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var input models.UpdateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	booking, err := models.UpdateBooking(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func GetBooking(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	booking, err := models.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func AddReceivedPayment(c *gin.Context) {
	bookingId, err := strconv.Atoi(c.Param("id"))
	if err != nil || bookingId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var input models.NewReceivedPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	payment, err := models.AddReceivedPayment(c.Request.Context(), bookingId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func AddScheduledPayment(c *gin.Context) {
	bookingId, err := strconv.Atoi(c.Param("id"))
	if err != nil || bookingId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	var input models.NewScheduledPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	payment, err := models.AddScheduledPayment(c.Request.Context(), bookingId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}
