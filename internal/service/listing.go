package service

import (
	"context"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"bookmarket/internal/repository"
	"bookmarket/pkg/customerror"
	modelsListing "bookmarket/pkg/listing"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const boostDuration = 7 * 24 * time.Hour

type ListingServiceI interface {
	GetListings(offset int64, limit int64, filters map[string]any) ([]modelsListing.Listing, error)
	GetListing(id int64) (*modelsListing.Listing, error)
	CreateListing(l *modelsListing.Listing, files []*multipart.FileHeader) (int64, error)
	EditListing(current *modelsListing.Listing, patch *modelsListing.Listing, existingImages []string, files []*multipart.FileHeader, user *user.User) error
	DeleteListing(l *modelsListing.Listing, user *user.User) error
	SetSold(id int64, sold bool) error
	Boost(id int64) error
	View(id int64, viewerId uuid.UUID) (bool, int64, error)
}

type ListingService struct {
	listingRepo repository.ListingRepositoryI
	host        string
	port        string
	mainUrl     string
}

func NewListingService(listingRepo repository.ListingRepositoryI, host string, port string, mainUrl string) ListingServiceI {
	return &ListingService{
		listingRepo: listingRepo,
		host:        host,
		port:        port,
		mainUrl:     mainUrl,
	}
}

func (listingService *ListingService) GetListings(offset int64, limit int64, filters map[string]any) ([]modelsListing.Listing, error) {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	listings, err := listingService.listingRepo.GetListings(ctx, offset, limit, filters)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.GetListings")
		return []modelsListing.Listing{}, customErr
	}
	return listings, nil
}

func (listingService *ListingService) GetListing(id int64) (*modelsListing.Listing, error) {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	l, err := listingService.listingRepo.GetListing(ctx, id)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.GetListing")
		return nil, customErr
	}
	return l, nil
}

func (listingService *ListingService) CreateListing(l *modelsListing.Listing, files []*multipart.FileHeader) (int64, error) {
	if l.Price <= 0 || l.Price > modelsListing.MaxPrice {
		return 0, customerror.ErrInvalidPrice
	}
	if err := validateListingImages(files); err != nil {
		return 0, err
	}
	uploadPath := filepath.Join(".", "media", "listings", l.OwnerId.String())
	if err := os.MkdirAll(uploadPath, 0755); err != nil {
		return 0, customerror.NewError("ListingService.CreateListing.MkdirAll", listingService.host+":"+listingService.port, err.Error())
	}
	var imagePaths []string
	for _, file := range files {
		path, err := saveCompressedImage(file, uploadPath)
		if err != nil {
			for _, saved := range imagePaths {
				go listingService.DeleteFile(saved)
			}
			return 0, customerror.NewError("ListingService.CreateListing.SaveImage", listingService.host+":"+listingService.port, err.Error())
		}
		imagePaths = append(imagePaths, path)
	}
	l.ImagePaths = imagePaths
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	id, err := listingService.listingRepo.InsertListing(ctx, l)
	if err != nil {
		for _, saved := range imagePaths {
			go listingService.DeleteFile(saved)
		}
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.CreateListing")
		return 0, customErr
	}
	return id, nil
}

// EditListing applies a field patch and reconciles images.
// existingImages == nil keeps every stored image; a subset keeps
// exactly that subset and removes the complement from disk and from the
// stored path list. New uploads are appended after the kept ones.
func (listingService *ListingService) EditListing(current *modelsListing.Listing, patch *modelsListing.Listing, existingImages []string, files []*multipart.FileHeader, user *user.User) error {
	if patch.Price <= 0 || patch.Price > modelsListing.MaxPrice {
		return customerror.ErrInvalidPrice
	}

	kept := current.ImagePaths
	var removed []string
	if existingImages != nil {
		stored := map[string]bool{}
		for _, path := range current.ImagePaths {
			stored[path] = true
		}
		kept = []string{}
		for _, path := range existingImages {
			if !stored[path] {
				return customerror.ErrInvalidImages
			}
			kept = append(kept, path)
		}
		keptSet := map[string]bool{}
		for _, path := range kept {
			keptSet[path] = true
		}
		for _, path := range current.ImagePaths {
			if !keptSet[path] {
				removed = append(removed, path)
			}
		}
	}

	var added []string
	if len(files) > 0 {
		if len(kept)+len(files) > modelsListing.MaxImages {
			return customerror.ErrInvalidImages
		}
		if err := validateListingImages(files); err != nil {
			return err
		}
		uploadPath := filepath.Join(".", "media", "listings", current.OwnerId.String())
		if err := os.MkdirAll(uploadPath, 0755); err != nil {
			return customerror.NewError("ListingService.EditListing.MkdirAll", listingService.host+":"+listingService.port, err.Error())
		}
		for _, file := range files {
			path, err := saveCompressedImage(file, uploadPath)
			if err != nil {
				for _, saved := range added {
					go listingService.DeleteFile(saved)
				}
				return customerror.NewError("ListingService.EditListing.SaveImage", listingService.host+":"+listingService.port, err.Error())
			}
			added = append(added, path)
		}
	}

	finalPaths := append(append([]string{}, kept...), added...)
	if len(finalPaths) < 1 || len(finalPaths) > modelsListing.MaxImages {
		for _, saved := range added {
			go listingService.DeleteFile(saved)
		}
		return customerror.ErrInvalidImages
	}

	patch.Id = current.Id
	patch.OwnerId = current.OwnerId
	patch.ImagePaths = finalPaths
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := listingService.listingRepo.UpdateListing(ctx, patch, user)
	if err == pgx.ErrNoRows {
		return err
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.EditListing")
		return customErr
	}
	for _, path := range removed {
		go listingService.DeleteFile(path)
	}
	return nil
}

func (listingService *ListingService) DeleteListing(l *modelsListing.Listing, user *user.User) error {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := listingService.listingRepo.DeleteListing(ctx, l.Id, user)
	if err == pgx.ErrNoRows {
		return err
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.DeleteListing")
		return customErr
	}
	// Image cleanup is best effort; a missing file never undoes the
	// row deletion.
	for _, path := range l.ImagePaths {
		go listingService.DeleteFile(path)
	}
	return nil
}

func (listingService *ListingService) SetSold(id int64, sold bool) error {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := listingService.listingRepo.SetSold(ctx, id, sold)
	if err == pgx.ErrNoRows {
		if sold {
			return customerror.ErrAlreadySold
		}
		return customerror.ErrNotSold
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.SetSold")
		return customErr
	}
	return nil
}

func (listingService *ListingService) Boost(id int64) error {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := listingService.listingRepo.SetBoost(ctx, id, time.Now().Add(boostDuration))
	if err == pgx.ErrNoRows {
		return err
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.Boost")
		return customErr
	}
	return nil
}

func (listingService *ListingService) View(id int64, viewerId uuid.UUID) (bool, int64, error) {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	counted, views, err := listingService.listingRepo.IncrementViews(ctx, id, viewerId)
	if err == pgx.ErrNoRows {
		return false, 0, err
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ListingService.View")
		return false, 0, customErr
	}
	return counted, views, nil
}

func (listingService *ListingService) DeleteFile(path string) {
	err := os.Remove(path)
	if err != nil {
		customErr := customerror.NewError("ListingService.DeleteFile", listingService.host+":"+listingService.port, err.Error()).(customerror.CustomError)
		log.Println(customErr)
		return
	}
}
