package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dramaweb/models"
	"dramaweb/services"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	for _, c := range []*cobra.Command{feedCmd, searchCmd, episodesCmd} {
		c.Flags().Bool("raw", false, "Print the upstream payload without normalization")
		rootCmd.AddCommand(c)
	}
	feedCmd.Flags().IntP("page", "p", 1, "Page number")
	searchCmd.Flags().IntP("page", "p", 1, "Page number")
	rootCmd.AddCommand(watchCmd)
}

var errEmptyQuery = errors.New("empty query")

var feedCmd = &cobra.Command{
	Use:       "feed <foryou|new|rank>",
	Short:     "Print a home feed as JSON",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(services.FeedForYou), string(services.FeedNew), string(services.FeedRank)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := services.ParseFeedKind(args[0])
		if !ok {
			return fmt.Errorf("unknown feed %q, want one of %s", args[0], strings.Join(cmd.ValidArgs, ", "))
		}
		api := services.GetDramaboxService()
		page := lo.Must(cmd.Flags().GetInt("page"))

		if lo.Must(cmd.Flags().GetBool("raw")) {
			return printRaw(cmd, api, api.FeedURL(kind, page))
		}

		data, err := api.Feed(cmd.Context(), kind, page)
		if err != nil {
			return err
		}
		cards := cardsOf(services.FeedItems(data))
		return printJSON(cmd.OutOrStdout(), models.FeedResponse{Kind: string(kind), Items: cards, Total: len(cards)})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search dramas and print the results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		api := services.GetDramaboxService()
		page := lo.Must(cmd.Flags().GetInt("page"))

		if lo.Must(cmd.Flags().GetBool("raw")) {
			return printRaw(cmd, api, api.SearchURL(query, page))
		}
		if strings.TrimSpace(query) == "" {
			return errEmptyQuery
		}

		data, err := api.Search(cmd.Context(), query, page)
		if err != nil {
			return err
		}
		cards := cardsOf(services.AsItems(data))
		return printJSON(cmd.OutOrStdout(), models.FeedResponse{Kind: string(services.TabSearch), Items: cards, Total: len(cards)})
	},
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <drama-id>",
	Short: "Print the episode list of a drama as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if id == "" {
			return &models.MissingIDError{}
		}
		api := services.GetDramaboxService()

		if lo.Must(cmd.Flags().GetBool("raw")) {
			return printRaw(cmd, api, api.ChaptersURL(id))
		}

		payload, err := api.Chapters(cmd.Context(), id)
		if err != nil {
			return err
		}
		drama, ok := services.DramaFromChapters(payload)
		if !ok {
			drama = services.PlaceholderDrama(id)
		}
		episodes := lo.Map(services.UnwrapChapters(payload), func(ep models.Item, _ int) models.EpisodeInfo {
			return services.ToEpisodeInfo(ep)
		})
		return printJSON(cmd.OutOrStdout(), models.EpisodesResponse{Drama: services.ToCard(drama), Episodes: episodes, Total: len(episodes)})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <drama-id> <episode-index>",
	Short: "Resolve the video URL of one episode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if id == "" {
			return &models.MissingIDError{}
		}
		index, err := strconv.Atoi(args[1])
		if err != nil || index < 0 {
			return fmt.Errorf("invalid episode index %q", args[1])
		}

		videoURL, err := services.GetDramaboxService().Stream(cmd.Context(), id, index)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), models.StreamInfo{DramaID: id, Index: index, VideoURL: videoURL, PlayURL: videoURL})
	},
}

func cardsOf(items []models.Item) []models.DramaCard {
	return lo.Map(items, func(it models.Item, _ int) models.DramaCard { return services.ToCard(it) })
}

// printRaw 输出上游原始响应，用于观察接口结构；空地址表示没有可请求的接口
func printRaw(cmd *cobra.Command, api *services.DramaboxService, url string) error {
	if url == "" {
		return errEmptyQuery
	}
	payload, err := api.GetJSON(cmd.Context(), url)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), payload)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
