package storage

import (
    "bytes"
    "context"
    "crypto/aes"
    "crypto/cipher"
    "crypto/rand"
    "crypto/sha256"
    "fmt"
    "io"
    "strconv"
    "strings"

    "github.com/aws/aws-sdk-go-v2/aws"
    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog/log"
    "golang.org/x/crypto/pbkdf2"
)

// gcmMagic marks password-protected source papers. Format after the magic:
// salt(16) + nonce(12) + ciphertext+tag.
const gcmMagic = "GCM3NCR0"

// S3Client stores uploaded source papers and finished exam artifacts.
// Source papers may arrive password protected; rendered artifacts are
// stored in the clear.
type S3Client struct {
    client     *s3.Client
    uploader   *manager.Uploader
    bucketName string
}

// FileMetadata represents metadata about a stored file
type FileMetadata struct {
    OriginalName string            `json:"original_name"`
    ContentType  string            `json:"content_type"`
    Size         int64             `json:"size"`
    Encrypted    bool              `json:"encrypted"`
    Metadata     map[string]string `json:"metadata"`
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, bucketName string) (*S3Client, error) {
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return nil, fmt.Errorf("failed to load AWS config: %w", err)
    }

    cli := s3.NewFromConfig(cfg)

    return &S3Client{
        client:     cli,
        uploader:   manager.NewUploader(cli),
        bucketName: bucketName,
    }, nil
}

// DownloadSource downloads a source paper from S3, decrypting it when a
// password is supplied.
func (s *S3Client) DownloadSource(ctx context.Context, key, password string) ([]byte, *FileMetadata, error) {
    result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
        Bucket: aws.String(s.bucketName),
        Key:    aws.String(key),
    })
    if err != nil {
        return nil, nil, fmt.Errorf("failed to download from S3: %w", err)
    }
    defer result.Body.Close()

    data, err := io.ReadAll(result.Body)
    if err != nil {
        return nil, nil, fmt.Errorf("failed to read S3 object: %w", err)
    }

    metadata := &FileMetadata{
        Metadata: make(map[string]string),
    }

    if result.Metadata != nil {
        if name, ok := result.Metadata["name"]; ok {
            metadata.OriginalName = name
        } else if name, ok := result.Metadata["Name"]; ok {
            metadata.OriginalName = name
        }
        for k, v := range result.Metadata {
            metadata.Metadata[strings.ToLower(k)] = v
        }
    }
    if result.ContentLength != nil {
        metadata.Size = *result.ContentLength
    }

    if password != "" || bytes.HasPrefix(data, []byte(gcmMagic)) {
        decrypted, err := s.decryptGCM(data, password)
        if err != nil {
            return nil, nil, fmt.Errorf("failed to decrypt source: %w", err)
        }
        metadata.Encrypted = true
        data = decrypted
    }

    log.Info().
        Str("key", key).
        Bool("encrypted", metadata.Encrypted).
        Str("original_name", metadata.OriginalName).
        Int("size", len(data)).
        Msg("downloaded source paper from S3")

    return data, metadata, nil
}

// UploadProtected encrypts a source paper with the given password and
// uploads it.
func (s *S3Client) UploadProtected(ctx context.Context, key string, data []byte, password string, metadata *FileMetadata) error {
    encrypted, err := s.encryptGCM(data, password)
    if err != nil {
        return fmt.Errorf("failed to encrypt data: %w", err)
    }

    s3Metadata := map[string]string{"encrypted": "true"}
    if metadata != nil {
        s3Metadata["name"] = metadata.OriginalName
        s3Metadata["content-type"] = metadata.ContentType
        for k, v := range metadata.Metadata {
            s3Metadata[k] = v
        }
    }

    _, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
        Bucket:   aws.String(s.bucketName),
        Key:      aws.String(key),
        Body:     bytes.NewReader(encrypted),
        Metadata: s3Metadata,
    })
    if err != nil {
        return fmt.Errorf("failed to upload to S3: %w", err)
    }

    log.Info().Str("key", key).Int("size", len(encrypted)).Msg("uploaded protected source to S3")
    return nil
}

// UploadArtifact uploads a rendered exam artifact (PDF or snapshot JSON).
func (s *S3Client) UploadArtifact(ctx context.Context, key string, data []byte, contentType string) error {
    _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
        Bucket:      aws.String(s.bucketName),
        Key:         aws.String(key),
        Body:        bytes.NewReader(data),
        ContentType: aws.String(contentType),
    })
    if err != nil {
        return fmt.Errorf("failed to upload artifact: %w", err)
    }

    log.Info().Str("key", key).Int("size", len(data)).Str("content_type", contentType).Msg("uploaded artifact to S3")
    return nil
}

// ListNextVersion returns the next available integer suffix for a base key
// using pattern baseKey_v{N}. Regenerated exams get a fresh version.
func (s *S3Client) ListNextVersion(ctx context.Context, baseKey string) (int, error) {
    if baseKey == "" {
        return 1, nil
    }

    prefix := baseKey + "_v"
    maxVersion := 0

    paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
        Bucket: aws.String(s.bucketName),
        Prefix: aws.String(prefix),
    })

    for paginator.HasMorePages() {
        page, err := paginator.NextPage(ctx)
        if err != nil {
            return 1, fmt.Errorf("list versions failed: %w", err)
        }
        for _, obj := range page.Contents {
            if obj.Key == nil {
                continue
            }
            key := *obj.Key
            if strings.HasPrefix(key, prefix) {
                verStr := strings.TrimPrefix(key, prefix)
                if n, err := strconv.Atoi(verStr); err == nil {
                    if n > maxVersion {
                        maxVersion = n
                    }
                }
            }
        }
    }

    return maxVersion + 1, nil
}

// decryptGCM decrypts a protected source paper. The prefixed format is
// magic(8) + salt(16) + nonce(12) + ciphertext+tag; files without the magic
// use the same layout minus the magic.
func (s *S3Client) decryptGCM(encryptedData []byte, password string) ([]byte, error) {
    if bytes.HasPrefix(encryptedData, []byte(gcmMagic)) {
        encryptedData = encryptedData[len(gcmMagic):]
    }
    if len(encryptedData) < 16+12+16 {
        return nil, fmt.Errorf("encrypted data too short: %d bytes", len(encryptedData))
    }

    salt := encryptedData[:16]
    nonce := encryptedData[16:28]
    ciphertext := encryptedData[28:]

    key := pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)

    block, err := aes.NewCipher(key)
    if err != nil {
        return nil, fmt.Errorf("failed to create cipher: %w", err)
    }
    gcm, err := cipher.NewGCM(block)
    if err != nil {
        return nil, fmt.Errorf("failed to create GCM: %w", err)
    }

    plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
    if err != nil {
        return nil, fmt.Errorf("GCM decryption failed: %w", err)
    }

    return plaintext, nil
}

func (s *S3Client) encryptGCM(data []byte, password string) ([]byte, error) {
    salt := make([]byte, 16)
    if _, err := io.ReadFull(rand.Reader, salt); err != nil {
        return nil, fmt.Errorf("failed to generate salt: %w", err)
    }

    key := pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)

    block, err := aes.NewCipher(key)
    if err != nil {
        return nil, fmt.Errorf("failed to create cipher: %w", err)
    }
    gcm, err := cipher.NewGCM(block)
    if err != nil {
        return nil, fmt.Errorf("failed to create GCM: %w", err)
    }

    nonce := make([]byte, gcm.NonceSize())
    if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
        return nil, fmt.Errorf("failed to generate nonce: %w", err)
    }

    ciphertext := gcm.Seal(nil, nonce, data, nil)

    result := make([]byte, 0, len(gcmMagic)+len(salt)+len(nonce)+len(ciphertext))
    result = append(result, gcmMagic...)
    result = append(result, salt...)
    result = append(result, nonce...)
    result = append(result, ciphertext...)

    return result, nil
}
