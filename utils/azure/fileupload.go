package azure

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/url"
	"strings"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	"github.com/Azure/azure-storage-blob-go/azblob"
)

// UploadRecording pushes a finished call recording to blob storage and
// returns its URL. The short sleep lets Asterisk flush the file first.
func UploadRecording(
	ctx context.Context,
	callID string,
	filePath string,
) (string, error) {
	time.Sleep(3 * time.Second)

	accountName := configmanager.ConfStore.AzureBlobAccount
	accountKey := configmanager.ConfStore.AzureBlobAccessKey
	containerName := configmanager.ConfStore.AzureBlobContainer
	if len(accountName) == 0 || len(accountKey) == 0 {
		ymlogger.LogDebug(callID, "Blob storage is not configured. Skipping recording upload")
		return "", nil
	}

	fileEle := strings.Split(filePath, "/")
	fileName := time.Now().Format("2006-01-02") + "/" + fileEle[len(fileEle)-1]

	u, err := url.Parse(
		fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", accountName, containerName, fileName))
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to parse the URL. Error: [%#v]", err)
		return "", err
	}
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		ymlogger.LogErrorf(callID, "Invalid credentials. Error: [%#v]", err.Error())
		return "", err
	}

	blockBlobURL := azblob.NewBlockBlobURL(*u, azblob.NewPipeline(credential, azblob.PipelineOptions{}))
	// Read file contents with retries
	var dat []byte
	for i := 0; i < 3; i++ {
		dat, err = ioutil.ReadFile(filePath)
		if err != nil {
			ymlogger.LogErrorf(callID, "Error while reading the file. Error: [%#v]", err)
			time.Sleep(1 * time.Second)
			continue
		}
		break
	}
	if err != nil {
		return "", err
	}

	o := azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{
			ContentType: "audio/wav",
		},
	}
	_, err = azblob.UploadBufferToBlockBlob(ctx, dat, blockBlobURL, o)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to upload the file to blob storage. Error: [%#v]", err)
		return "", err
	}
	ymlogger.LogInfof(callID, "Uploaded file to blob: [%s]", blockBlobURL.String())
	return blockBlobURL.String(), nil
}
