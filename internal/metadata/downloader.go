package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-version"
)

const definitionAddress string = "https://api.nuget.org/v3/index.json"
const nugetName string = "microsoft.windows.sdk.win32metadata"

// Downloads the newest Win32 metadata package and stores its .winmd file
// under metadataFileName.
func DownloadMetadata(ctx context.Context, client *http.Client, metadataFileName string) (string, error) {
	baseAddress, err := getBaseAddress(ctx, client)
	if err != nil {
		return "", err
	}

	versionsResponse, err := queryGet(ctx, client, fmt.Sprintf("%s%s/index.json", baseAddress, nugetName))
	if err != nil {
		return "", err
	}
	versions, err := parse[map[string][]string](versionsResponse)
	if err != nil {
		return "", errors.Wrap(err, "could not parse package versions")
	}

	latest, err := latestVersion(versions["versions"])
	if err != nil {
		return "", err
	}

	nugetBytes, err := queryGet(ctx, client, fmt.Sprintf("%s%s/%s/%s.%s.nupkg", baseAddress, nugetName, latest, nugetName, latest))
	if err != nil {
		return "", err
	}

	bytesReader := bytes.NewReader(nugetBytes)
	nuget, err := zip.NewReader(bytesReader, int64(bytesReader.Len()))
	if err != nil {
		return "", errors.Wrap(err, "package is not a valid archive")
	}
	for _, file := range nuget.File {
		if filepath.Ext(file.Name) != ".winmd" {
			continue
		}
		reader, err := file.Open()
		if err != nil {
			return "", errors.Wrapf(err, "could not open %s in package", file.Name)
		}
		metadataBytes, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return "", errors.Wrapf(err, "could not extract %s", file.Name)
		}
		if err := os.WriteFile(metadataFileName, metadataBytes, 0644); err != nil {
			return "", errors.Wrapf(err, "could not write %s", metadataFileName)
		}
		return latest, nil
	}

	return "", errors.Newf("package %s %s contains no .winmd file", nugetName, latest)
}

// Picks the highest version. Unparsable entries are an error.
func latestVersion(versionStrings []string) (string, error) {
	if len(versionStrings) == 0 {
		return "", errors.New("no package versions published")
	}

	orderedVersions := make([]*version.Version, len(versionStrings))
	for i, versionString := range versionStrings {
		parsed, err := version.NewVersion(versionString)
		if err != nil {
			return "", errors.Wrapf(err, "error parsing version: %s", versionString)
		}
		orderedVersions[i] = parsed
	}

	sort.Sort(version.Collection(orderedVersions))
	return orderedVersions[len(orderedVersions)-1].Original(), nil
}

func getBaseAddress(ctx context.Context, client *http.Client) (string, error) {
	response, err := queryGet(ctx, client, definitionAddress)
	if err != nil {
		return "", err
	}
	index, err := parse[nugetIndex](response)
	if err != nil {
		return "", errors.Wrap(err, "could not parse nuget service index")
	}

	for _, resource := range index.Resources {
		if strings.Contains(resource.Type, "PackageBaseAddress") {
			return resource.Id, nil
		}
	}

	return "", errors.New("nuget service index has no PackageBaseAddress resource")
}

func parse[T interface{}](source []byte) (T, error) {
	var parsedBody T
	err := json.Unmarshal(source, &parsedBody)
	return parsedBody, err
}

func queryGet(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}

	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, errors.Newf("GET %s: unexpected status %s", url, response.Status)
	}

	return io.ReadAll(response.Body)
}

type nugetIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetResource struct {
	Id   string `json:"@id"`
	Type string `json:"@type"`
}
