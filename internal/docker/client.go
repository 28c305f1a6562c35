package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Client is the subset of the Docker engine API the console transport needs.
type Client struct {
	cli *client.Client
}

func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// IsTTY reports whether the container was started with a pseudo terminal,
// which decides whether its output stream is multiplexed.
func (c *Client) IsTTY(ctx context.Context, id string) (bool, error) {
	resp, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", id, err)
	}
	if !resp.State.Running {
		return false, fmt.Errorf("container %s is %s", id, resp.State.Status)
	}
	return resp.Config.Tty, nil
}

// Attach connects to the main process: stdin for commands, stdout and stderr
// for server output produced from now on.
func (c *Client) Attach(ctx context.Context, id string) (types.HijackedResponse, error) {
	return c.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
}
