package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"postboard/app/client"
	"postboard/app/config"
	"postboard/app/models"
)

// consoleNotifier prints form notifications.
type consoleNotifier struct{}

func (consoleNotifier) Success(message string) { fmt.Println(message) }
func (consoleNotifier) Failure(message string) { fmt.Println("Error: " + message) }

// HandlePostsCommand drives the post form against a running server and
// returns an exit code.
func HandlePostsCommand(args []string) int {
	if len(args) < 1 {
		printPostsHelp()
		osExit(1)
		return 1
	}
	cmd := args[0]
	if cmd == "help" {
		printPostsHelp()
		return 0
	}

	fs, cfgPath := newFlagSet("posts " + cmd)
	baseURL := fs.String("url", "", "server base URL (overrides client.base_url)")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post content")
	picture := fs.String("picture", "", "path to an image to upload")
	if err := fs.Parse(args[1:]); err != nil {
		osExit(2)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		osExit(1)
		return 1
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}

	c := client.New(cfg.Client.BaseURL, cfg.Client.Timeout)
	ctx := context.Background()

	needID := func() (int, bool) {
		if fs.NArg() < 1 {
			fmt.Printf("Error: post id required for %s\n", cmd)
			return 0, false
		}
		id, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			fmt.Printf("Error: invalid post id %q\n", fs.Arg(0))
			return 0, false
		}
		return id, true
	}

	var code int
	switch cmd {
	case "list":
		code = listPosts(ctx, c)
	case "show":
		id, ok := needID()
		if !ok {
			code = 1
			break
		}
		code = showPost(ctx, c, id)
	case "create":
		code = submitPost(ctx, c, nil, *title, *content, *picture)
	case "update":
		id, ok := needID()
		if !ok {
			code = 1
			break
		}
		post, err := c.Get(ctx, id)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			code = 1
			break
		}
		// Unset flags keep the stored values.
		if *title == "" {
			*title = post.Title
		}
		if *content == "" {
			*content = post.Content
		}
		code = submitPost(ctx, c, post, *title, *content, *picture)
	case "delete":
		id, ok := needID()
		if !ok {
			code = 1
			break
		}
		res, err := c.Delete(ctx, id)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			code = 1
			break
		}
		fmt.Println(res.Flash)
	default:
		fmt.Printf("Unknown posts command: %s\n\n", cmd)
		printPostsHelp()
		code = 1
	}

	if code != 0 {
		osExit(code)
	}
	return code
}

func printPostsHelp() {
	helpText := `Usage: postboard posts <command> [options] [id]

Commands:
  list                                         List every post
  show <id>                                    Show one post
  create --title <t> --content <c> [--picture <file>]
                                               Create a post
  update [--title <t>] [--content <c>] [--picture <file>] <id>
                                               Update a post; the picture is kept unless a new one is given
  delete <id>                                  Delete a post
  help                                         Display this help message

Pictures over the server's request size limit are refused with HTTP 413
before they are validated, and are reported as a transport error.

Options:
  --url <base>                                 Server base URL
  --config <file>                              Config file
`
	fmt.Println(helpText)
}

func listPosts(ctx context.Context, c *client.Client) int {
	res, err := c.List(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	printPosts(res.Posts)
	return 0
}

func showPost(ctx context.Context, c *client.Client, id int) int {
	post, err := c.Get(ctx, id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	fmt.Printf("ID:      %d\nTitle:   %s\nPicture: %s\n\n%s\n", post.ID, post.Title, post.PictureURL(), post.Content)
	return 0
}

// submitPost fills the form the way a user would and submits it. A nil post
// opens the form in create mode.
func submitPost(ctx context.Context, c *client.Client, post *models.Post, title, content, picture string) int {
	form := client.NewForm(c, consoleNotifier{})
	if err := form.Open(post); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	form.SetTitle(title)
	form.SetContent(content)

	if picture != "" {
		data, err := os.ReadFile(picture)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		form.SelectFile(filepath.Base(picture), data)
	}

	if err := form.Submit(ctx); err != nil {
		fmt.Println(err)
		return 1
	}
	printPosts(form.Posts())
	return 0
}

func printPosts(posts []*models.Post) {
	if len(posts) == 0 {
		fmt.Println("No posts yet.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPICTURE")
	for _, p := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Title, p.PictureURL())
	}
	w.Flush()
}
