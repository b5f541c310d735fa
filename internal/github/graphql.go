package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// batchSize is the number of files to query per GraphQL request.
	batchSize = 100
)

// GetFileCommitDates fetches the last commit date on the default branch for
// multiple files of one repository. Files without history are omitted.
func (c *Client) GetFileCommitDates(ctx context.Context, fullName string, paths []string) ([]FileCommitInfo, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return nil, fmt.Errorf("invalid repository name %q (expected owner/repo)", fullName)
	}

	results := make([]FileCommitInfo, 0, len(paths))

	// Process files in batches to stay within GraphQL API limits.
	for i := 0; i < len(paths); i += batchSize {
		end := min(i+batchSize, len(paths))
		batch := paths[i:end]

		query := buildFileHistoryQuery(owner, name, batch)

		var response struct {
			Repository struct {
				DefaultBranchRef struct {
					Target map[string]struct {
						Nodes []struct {
							CommittedDate time.Time `json:"committedDate"`
						} `json:"nodes"`
					} `json:"target"`
				} `json:"defaultBranchRef"`
			} `json:"repository"`
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		err := c.graphql.DoWithContext(ctx, query, nil, &response)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch file commit dates: %w", err)
		}

		for j, path := range batch {
			alias := "file" + strconv.Itoa(j)
			history, ok := response.Repository.DefaultBranchRef.Target[alias]
			if !ok || len(history.Nodes) == 0 {
				continue // File doesn't exist or no commit history
			}

			results = append(results, FileCommitInfo{
				Path:          path,
				CommittedDate: history.Nodes[0].CommittedDate,
			})
		}
	}

	return results, nil
}

// buildFileHistoryQuery builds a compact GraphQL query with aliases for each file.
// Query structure (shown formatted for readability, actual query is compact):
//
//	{
//	  repository(owner: "owner", name: "repo") {
//	    defaultBranchRef {
//	      target {
//	        ... on Commit {
//	          file0: history(first: 1, path: "path0") {
//	            nodes { committedDate }
//	          }
//	        }
//	      }
//	    }
//	  }
//	}
func buildFileHistoryQuery(owner, repo string, paths []string) string {
	var buf strings.Builder
	buf.Grow(160 + len(paths)*80)

	fmt.Fprintf(&buf, "{repository(owner:%q,name:%q){defaultBranchRef{target{...on Commit{", owner, repo)

	for i, path := range paths {
		escapedPath, _ := json.Marshal(path)
		fmt.Fprintf(&buf, "%s:history(first:1,path:%s){nodes{committedDate}}", "file"+strconv.Itoa(i), escapedPath)
	}

	buf.WriteString("}}}}}")

	return buf.String()
}
