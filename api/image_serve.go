package api

import (
	"net/http"

	"bitwise74/blog-api/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageServe streams a stored image out of the S3 bucket. Only mounted
// when the S3 backend is configured; local images are served statically
func (a *API) ImageServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	name := c.Param("name")

	s3Store, ok := a.Images.(*storage.S3)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	out, err := s3Store.C.GetObject(c.Request.Context(), &s3.GetObjectInput{
		Bucket: s3Store.Bucket,
		Key:    aws.String(name),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Image not found",
			"requestID": requestID,
		})

		zap.L().Debug("Failed to fetch image from S3", zap.Error(err), zap.String("key", name))
		return
	}
	defer out.Body.Close()

	c.DataFromReader(http.StatusOK, aws.ToInt64(out.ContentLength), aws.ToString(out.ContentType), out.Body, nil)
}
