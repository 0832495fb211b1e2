package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectNotFound = errors.New("object not found")

/*
Conn is a thin wrapper around a minio client, reduced to the whole-object
reads and writes the task store needs.
*/
type Conn struct {
	client *minio.Client
}

type ConnConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}

func NewConn(cfg ConnConfig) (*Conn, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})

	if err != nil {
		return nil, err
	}

	return &Conn{client: client}, nil
}

/*
EnsureBucket creates the bucket when it does not exist yet.
*/
func (conn *Conn) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := conn.client.BucketExists(ctx, bucket)

	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	log.Info("creating bucket", "bucket", bucket)

	return conn.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

func (conn *Conn) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := conn.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})

	if err != nil {
		return nil, translate(err)
	}

	defer obj.Close()

	buf, err := io.ReadAll(obj)

	if err != nil {
		return nil, translate(err)
	}

	return buf, nil
}

func (conn *Conn) Put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := conn.client.PutObject(
		ctx, bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)

	return err
}

func translate(err error) error {
	resp := minio.ToErrorResponse(err)

	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrObjectNotFound
	}

	return err
}
