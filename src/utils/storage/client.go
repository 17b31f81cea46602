package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

var ErrEmptyObject = errors.New("object is empty")

// Subset of the S3 api used for uploads
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploads product images to S3 compatible storage and builds their public urls
type Client struct {
	config *config.Storage
	log    *logrus.Entry
	api    PutObjectAPI
}

func NewClient(ctx context.Context, cfg *config.Storage) (self *Client, err error) {
	if cfg.Bucket == "" {
		err = errors.New("storage bucket is required")
		return
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		err = fmt.Errorf("failed to create AWS config: %w", err)
		return
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewClientWithAPI(cfg, api), nil
}

func NewClientWithAPI(cfg *config.Storage, api PutObjectAPI) (self *Client) {
	self = new(Client)
	self.config = cfg
	self.log = logger.NewSublogger("storage")
	self.api = api
	return
}

// Uploads data under the key and returns its public url
func (self *Client) Upload(ctx context.Context, key, contentType string, data []byte) (url string, err error) {
	if len(data) == 0 {
		err = ErrEmptyObject
		return
	}

	if self.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.config.UploadTimeout)
		defer cancel()
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(self.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}
	if self.config.PublicReadAcl {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	_, err = self.api.PutObject(ctx, input)
	if err != nil {
		err = fmt.Errorf("failed to upload object: %w", err)
		return
	}

	self.log.WithField("key", key).WithField("size", len(data)).Debug("Uploaded object")

	return self.PublicUrl(key), nil
}

func (self *Client) PublicUrl(key string) string {
	return strings.TrimRight(self.config.PublicBaseUrl, "/") + "/" + strings.TrimLeft(key, "/")
}
