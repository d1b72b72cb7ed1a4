// Package ffmpeg builds command lines for FFmpeg-family tools.
//
// An [Invocation] is rendered once, at construction, from an executable,
// global options, and ordered input and output [Spec] values. The token
// order follows the tool's grammar:
//
//	<exe> [global] ([input-opts] -i <input>)* ([output-opts] <output>)*
//
// Rendering is deterministic and preserves insertion order, which matters to
// ffmpeg because options bind to the next input or output that follows them.
//
// # Tokenization
//
// Option strings are split on whitespace by [Split] and nothing else. There
// is no quote handling and no escaping, so a value such as
//
//	-metadata title="My Movie"
//
// is split into three tokens. Pass such values pre-tokenized with [Args] or
// [Spec.AddArgs] instead. The display string returned by
// [Invocation.String] joins tokens with single spaces and is meant for logs,
// not for a shell.
//
// # Usage
//
//	inputs := ffmpeg.Spec{}.Add("in.mp4", "-ss 10")
//	outputs := ffmpeg.Spec{}.Add("out.mkv", "-c:v libx264 -crf 20")
//	inv := ffmpeg.New("ffmpeg", ffmpeg.Split("-y -hide_banner"), inputs, outputs)
//	fmt.Println(inv) // ffmpeg -y -hide_banner -ss 10 -i in.mp4 -c:v libx264 -crf 20 out.mkv
//
// Use the pipe protocol sentinels ([PipeStdin], [PipeStdout]) as paths when
// media is streamed through the child's standard streams.
package ffmpeg
