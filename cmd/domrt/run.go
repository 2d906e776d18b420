package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finitefield-org/browser-tester/engine"
)

func runRoot(cmd *cobra.Command, args []string) error {
	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("reading html fixture: %w", err)
	}
	stepsSrc, err := os.ReadFile(stepsPath)
	if err != nil {
		return fmt.Errorf("reading steps script: %w", err)
	}
	steps, err := parseSteps(string(stepsSrc))
	if err != nil {
		return fmt.Errorf("parsing steps: %w", err)
	}

	var opts []engine.Option
	if seed != 0 {
		opts = append(opts, engine.WithSeed(seed))
	}
	rt := engine.New(opts...)
	if err := rt.Load(string(html), htmlPath); err != nil {
		return fmt.Errorf("loading %s: %w", htmlPath, err)
	}

	for _, s := range steps {
		if err := runStep(rt, s); err != nil {
			return fmt.Errorf("line %d: %s: %w", s.Line, s.Verb, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok  %s(%v)\n", s.Verb, s.Args)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "PASS: %d steps\n", len(steps))
	return nil
}

func runStep(rt *engine.Runtime, s step) error {
	switch s.Verb {
	case "type_text":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		text, err := argStr(s.Args, 1)
		if err != nil {
			return err
		}
		return rt.TypeText(sel, text)
	case "set_checked":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		v, err := argBool(s.Args, 1)
		if err != nil {
			return err
		}
		return rt.SetChecked(sel, v)
	case "click":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.Click(sel)
	case "press_enter":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.PressEnter(sel)
	case "focus":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.Focus(sel)
	case "blur":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.Blur(sel)
	case "submit":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.Submit(sel)
	case "dispatch":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		name, err := argStr(s.Args, 1)
		if err != nil {
			return err
		}
		return rt.Dispatch(sel, name)
	case "assert_text":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		want, err := argStr(s.Args, 1)
		if err != nil {
			return err
		}
		return rt.AssertText(sel, want)
	case "assert_value":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		want, err := argStr(s.Args, 1)
		if err != nil {
			return err
		}
		return rt.AssertValue(sel, want)
	case "assert_checked":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		want, err := argBool(s.Args, 1)
		if err != nil {
			return err
		}
		return rt.AssertChecked(sel, want)
	case "assert_exists":
		sel, err := argStr(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.AssertExists(sel)
	case "advance_time":
		ms, err := argInt(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.AdvanceTime(ms)
	case "advance_time_to":
		ms, err := argInt(s.Args, 0)
		if err != nil {
			return err
		}
		return rt.AdvanceTimeTo(ms)
	case "flush":
		return rt.Flush()
	case "run_due_timers":
		return rt.RunDueTimers()
	case "run_next_timer":
		rt.RunNextTimer()
		return nil
	case "run_next_due_timer":
		rt.RunNextDueTimer()
		return nil
	case "clear_timer":
		id, err := argInt(s.Args, 0)
		if err != nil {
			return err
		}
		rt.ClearTimer(int(id))
		return nil
	case "clear_all_timers":
		rt.ClearAllTimers()
		return nil
	case "set_timer_step_limit":
		n, err := argInt(s.Args, 0)
		if err != nil {
			return err
		}
		rt.SetTimerStepLimit(int(n))
		return nil
	case "dump_dom":
		sel := ""
		if len(s.Args) > 0 {
			sel = s.Args[0]
		}
		out, err := rt.DumpDOM(sel)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	case "trace_events":
		v, err := argBool(s.Args, 0)
		if err != nil {
			return err
		}
		rt.SetEventTraceEnabled(v)
		return nil
	case "trace_timers":
		v, err := argBool(s.Args, 0)
		if err != nil {
			return err
		}
		rt.SetTimerTraceEnabled(v)
		return nil
	case "take_trace_logs":
		for _, line := range rt.TakeTraceLogs() {
			fmt.Println(line)
		}
		return nil
	case "set_random_seed":
		n, err := argInt(s.Args, 0)
		if err != nil {
			return err
		}
		rt.SetRandomSeed(uint64(n))
		return nil
	default:
		return fmt.Errorf("unknown step verb %q", s.Verb)
	}
}
