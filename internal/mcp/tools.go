package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/vaulttray/internal/notes"
	"github.com/1broseidon/vaulttray/internal/settings"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{UptimeSeconds: status.UptimeSeconds, Controller: status.Controller}, nil
}

func (s *Server) handleListCommands(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListCommandsInput) (*mcpsdk.CallToolResult, ListCommandsOutput, error) {
	cmds, err := s.daemon.ListCommands()
	if err != nil {
		return nil, ListCommandsOutput{}, err
	}
	return nil, ListCommandsOutput{Commands: cmds}, nil
}

func (s *Server) handleRunCommand(_ context.Context, _ *mcpsdk.CallToolRequest, args RunCommandInput) (*mcpsdk.CallToolResult, RunCommandOutput, error) {
	if args.ID == "" {
		return nil, RunCommandOutput{}, fmt.Errorf("id is required")
	}
	if err := s.daemon.RunCommand(args.ID); err != nil {
		return nil, RunCommandOutput{ID: args.ID}, err
	}
	return nil, RunCommandOutput{ID: args.ID, Ran: true}, nil
}

func (s *Server) handleGetSettings(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetSettingsInput) (*mcpsdk.CallToolResult, GetSettingsOutput, error) {
	data, err := s.daemon.GetSettings()
	if err != nil {
		return nil, GetSettingsOutput{}, err
	}

	out := GetSettingsOutput{Path: data.Path}
	for _, section := range settings.Sections() {
		for _, opt := range section.Options {
			out.Settings = append(out.Settings, SettingInfo{
				Key:             string(opt.Key),
				Label:           opt.Label(),
				Kind:            opt.Kind.String(),
				Section:         section.Heading,
				Description:     opt.Description,
				Value:           data.Values[string(opt.Key)],
				RestartRequired: opt.RestartRequired,
			})
		}
	}
	return nil, out, nil
}

func (s *Server) handleSetSetting(_ context.Context, _ *mcpsdk.CallToolRequest, args SetSettingInput) (*mcpsdk.CallToolResult, SetSettingOutput, error) {
	opt, err := settings.Lookup(settings.Key(args.Key))
	if err != nil {
		return nil, SetSettingOutput{}, err
	}
	// Validate locally so a bad value never reaches the daemon.
	if _, err := opt.Parse(args.Value); err != nil {
		return nil, SetSettingOutput{}, err
	}
	if err := s.daemon.SetSetting(args.Key, args.Value); err != nil {
		return nil, SetSettingOutput{}, err
	}
	return nil, SetSettingOutput{Key: args.Key, Value: args.Value}, nil
}

func (s *Server) handleReconcile(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReconcileInput) (*mcpsdk.CallToolResult, ReconcileOutput, error) {
	data, err := s.daemon.Reconcile()
	if err != nil {
		return nil, ReconcileOutput{}, err
	}
	return nil, *data, nil
}

func (s *Server) handlePreviewQuickNote(_ context.Context, _ *mcpsdk.CallToolRequest, args PreviewQuickNoteInput) (*mcpsdk.CallToolResult, PreviewQuickNoteOutput, error) {
	folder, format := args.Folder, args.Format
	if folder == "" || format == "" {
		data, err := s.daemon.GetSettings()
		if err != nil {
			return nil, PreviewQuickNoteOutput{}, err
		}
		if folder == "" {
			folder = data.Values[string(settings.QuickNoteLocation)]
		}
		if format == "" {
			format = data.Values[string(settings.QuickNoteDateFormat)]
		}
	}
	return nil, PreviewQuickNoteOutput{Path: notes.Path(folder, format, s.clock.Now())}, nil
}
