package services

import (
	"fmt"
	"mime/multipart"

	"github.com/Fredric505/taller-api/utils"
)

// Photo slots on a repair: the state of the device when it came in and when
// it went out.
const (
	PhotoSlotReceived  = "received"
	PhotoSlotDelivered = "delivered"
)

// PhotoService handles device photo upload, retrieval and deletion for repairs
type PhotoService interface {
	// UploadDevicePhoto validates and uploads a device photo, returns the storage key
	UploadDevicePhoto(repairID uint, slot string, fileHeader *multipart.FileHeader) (string, error)

	// GetPhotoURL generates a URL for accessing an uploaded device photo
	GetPhotoURL(photoKey string) (string, error)

	// DeletePhoto removes a device photo from storage
	DeletePhoto(photoKey string) error
}

// S3PhotoService implements PhotoService using AWS S3 for storage
type S3PhotoService struct {
	s3Service S3Interface
}

var photoServiceInstance PhotoService

// InitPhotoService initializes the photo service with S3 backend
func InitPhotoService(s3Service S3Interface) PhotoService {
	photoServiceInstance = &S3PhotoService{
		s3Service: s3Service,
	}
	return photoServiceInstance
}

// GetPhotoService returns the initialized photo service instance
func GetPhotoService() PhotoService {
	return photoServiceInstance
}

// SetPhotoService sets the photo service instance (primarily for testing)
func SetPhotoService(service PhotoService) {
	photoServiceInstance = service
}

// ValidPhotoSlot reports whether the slot is one of the two device photo slots
func ValidPhotoSlot(slot string) bool {
	return slot == PhotoSlotReceived || slot == PhotoSlotDelivered
}

// UploadDevicePhoto validates and uploads a device photo to S3
func (s *S3PhotoService) UploadDevicePhoto(repairID uint, slot string, fileHeader *multipart.FileHeader) (string, error) {
	if !ValidPhotoSlot(slot) {
		return "", fmt.Errorf("invalid photo slot: %s", slot)
	}

	// Validate the image file
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	// Upload to S3 under the repair's key prefix
	keyPrefix := fmt.Sprintf("repairs/%d/%s", repairID, slot)
	s3Key, err := s.s3Service.UploadFile(fileHeader, keyPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to upload device photo: %w", err)
	}

	return s3Key, nil
}

// GetPhotoURL generates a presigned URL for accessing a device photo
func (s *S3PhotoService) GetPhotoURL(photoKey string) (string, error) {
	if photoKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(photoKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate photo URL: %w", err)
	}

	return url, nil
}

// DeletePhoto deletes a device photo from S3
func (s *S3PhotoService) DeletePhoto(photoKey string) error {
	if photoKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(photoKey); err != nil {
		return fmt.Errorf("failed to delete device photo: %w", err)
	}

	return nil
}
