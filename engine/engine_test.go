package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicFormEndToEnd(t *testing.T) {
	rt := New()
	html := `<input id=name><input id=agree type=checkbox>
<button id=go>Send</button><p id=out></p>
<script>document.getElementById('go').addEventListener('click',()=>{
  const n=document.getElementById('name').value;
  const a=document.getElementById('agree').checked;
  document.getElementById('out').textContent=a?` + "`OK:${n}`" + `:'NG';});</script>`
	require.NoError(t, rt.Load(html, "e1.html"))

	require.NoError(t, rt.TypeText("#name", "Taro"))
	require.NoError(t, rt.SetChecked("#agree", true))
	require.NoError(t, rt.Click("#go"))

	require.NoError(t, rt.AssertText("#out", "OK:Taro"))
}

func TestCaptureBubbleOrderEndToEnd(t *testing.T) {
	rt := New()
	html := `<div id=a><div id=b><button id=c>x</button></div></div>
<script>const log=[];
['a','b','c'].forEach(id=>{
 document.getElementById(id).addEventListener('click',()=>log.push(id+':b'));
 document.getElementById(id).addEventListener('click',()=>log.push(id+':c'),true);});
document.getElementById('c').addEventListener('click',()=>document.getElementById('a').textContent=log.join(','));
</script>`
	require.NoError(t, rt.Load(html, "e2.html"))
	require.NoError(t, rt.Click("#c"))
	require.NoError(t, rt.AssertText("#a", "a:c,b:c,c:c,c:b,b:b,a:b"))
}

func TestDeterministicTimersSplitAdvance(t *testing.T) {
	rt := New()
	html := `<p id=o></p>
<script>setTimeout(()=>document.getElementById('o').textContent='a',10);
setTimeout(()=>document.getElementById('o').textContent+='b',20);</script>`
	require.NoError(t, rt.Load(html, "e4.html"))

	require.NoError(t, rt.AdvanceTime(15))
	require.NoError(t, rt.AssertText("#o", "a"))

	require.NoError(t, rt.AdvanceTime(5))
	require.NoError(t, rt.AssertText("#o", "ab"))
}

func TestCheckboxDefaultActionFiresInputThenChange(t *testing.T) {
	rt := New()
	html := `<input id=cb type=checkbox>
<p id=log></p>
<script>const cb=document.getElementById('cb');
['click','input','change'].forEach(t=>cb.addEventListener(t,()=>{
  document.getElementById('log').textContent+=t+',';
}));</script>`
	require.NoError(t, rt.Load(html, "e5.html"))
	require.NoError(t, rt.Click("#cb"))
	require.NoError(t, rt.AssertChecked("#cb", true))
	require.NoError(t, rt.AssertText("#log", "click,input,change,"))
}

func TestAssertTextFailureReportsSnippetAndExpectedActual(t *testing.T) {
	rt := New()
	require.NoError(t, rt.Load(`<p id="p">hello</p>`, "fail.html"))

	err := rt.AssertText("#p", "goodbye")
	require.Error(t, err)
	ae, ok := err.(*AssertionError)
	require.True(t, ok)
	require.Equal(t, "assert_text", ae.Kind)
	require.Equal(t, "#p", ae.Selector)
	require.Equal(t, "goodbye", ae.Expected)
	require.Equal(t, "hello", ae.Actual)
	require.Contains(t, ae.Snippet, "hello")
}

func TestSelectorNotFoundPropagatesFromActions(t *testing.T) {
	rt := New()
	require.NoError(t, rt.Load(`<p></p>`, "missing.html"))
	err := rt.Click("#nope")
	require.Error(t, err)
	_, ok := err.(*SelectorNotFoundError)
	require.True(t, ok)
}

func TestRequiredFieldBlocksSubmitWithoutDispatch(t *testing.T) {
	rt := New()
	html := `<form id=f><input id=name required><button id=go type=submit>Go</button></form>
<script>document.getElementById('f').addEventListener('submit',(e)=>{
  e.preventDefault();
  document.getElementById('f').setAttribute('data-submitted','yes');
});</script>`
	require.NoError(t, rt.Load(html, "required.html"))
	require.NoError(t, rt.Click("#go"))

	f, err := rt.find("#f")
	require.NoError(t, err)
	require.False(t, f.HasAttribute("data-submitted"))
}

func TestClipboardAndConfirmMocks(t *testing.T) {
	rt := New()
	require.NoError(t, rt.Load(`<p id=p></p>`, "mocks.html"))
	rt.SetClipboard("seeded")
	rt.SeedConfirm(true)

	_, err := rt.interp.Run(`navigator.clipboard.readText()`)
	require.NoError(t, err)

	v, err := rt.interp.Run(`confirm('ok?')`)
	require.NoError(t, err)
	require.True(t, v.ToBoolean())
}

func TestTraceLogsCaptureEventDispatch(t *testing.T) {
	rt := New()
	require.NoError(t, rt.Load(`<button id=b>go</button>`, "trace.html"))
	rt.SetEventTraceEnabled(true)
	require.NoError(t, rt.Click("#b"))

	lines := rt.TakeTraceLogs()
	require.NotEmpty(t, lines)
	require.Contains(t, lines[0], "[event] click")
}
