package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/studio_backend/models"
	"github.com/gin-gonic/gin"
)

/* configuration registries */

func CreateBookingType(c *gin.Context) {
	var input models.NewBookingType
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	bookingType, err := models.CreateBookingType(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingType)
}

func UpdateBookingType(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewBookingType
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	bookingType, err := models.UpdateBookingType(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingType)
}

func ListBookingTypes(c *gin.Context) {
	bookingTypes, err := models.ListBookingTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingTypes)
}

func CreatePackageType(c *gin.Context) {
	var input models.NewPackageType
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	packageType, err := models.CreatePackageType(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, packageType)
}

func UpdatePackageType(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPackageType
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	packageType, err := models.UpdatePackageType(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, packageType)
}

func ListPackageTypes(c *gin.Context) {
	packageTypes, err := models.ListPackageTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, packageTypes)
}
