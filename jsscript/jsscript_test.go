package jsscript

import (
	"testing"

	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
	"github.com/finitefield-org/browser-tester/scheduler"
	"github.com/stretchr/testify/require"
)

func newDOMFixture(t *testing.T) (*Interp, *dom.Document, *domevents.Registry, *scheduler.Scheduler) {
	t.Helper()
	doc := dom.NewDocument()
	html := doc.CreateElement("html")
	doc.Root().AppendChild(html.AsNode())
	body := doc.CreateElement("body")
	html.AsNode().AppendChild(body.AsNode())
	events := domevents.NewRegistry()
	sched := scheduler.New(1000)
	ip := NewDOMInterp(doc, events, sched)
	return ip, doc, events, sched
}

func run(t *testing.T, ip *Interp, src string) Value {
	t.Helper()
	v, err := ip.Run(src)
	require.NoError(t, err)
	return v
}

func TestArithmeticAndCoercion(t *testing.T) {
	ip := NewInterp()
	require.Equal(t, float64(7), run(t, ip, "3 + 4").ToFloat())
	require.Equal(t, "34", run(t, ip, "'3' + 4").String())
	require.Equal(t, float64(-1), run(t, ip, "7 % 3 - 3 + 1").ToFloat())
	require.True(t, run(t, ip, "2 ** 10 === 1024").ToBoolean())
	require.True(t, run(t, ip, "null == undefined").ToBoolean())
	require.False(t, run(t, ip, "null === undefined").ToBoolean())
	require.True(t, run(t, ip, "NaN !== NaN").ToBoolean())
}

func TestVariablesAndScoping(t *testing.T) {
	ip := NewInterp()
	run(t, ip, "let x = 1; { let x = 2; }")
	require.Equal(t, float64(1), run(t, ip, "x").ToFloat())
	run(t, ip, "var y = 10; function bump() { y += 1; } bump(); bump();")
	require.Equal(t, float64(12), run(t, ip, "y").ToFloat())
	_, err := ip.Run("const z = 1; z = 2;")
	require.Error(t, err)
}

func TestClosuresAndArrowFunctions(t *testing.T) {
	ip := NewInterp()
	src := `
		function counter() {
			let n = 0;
			return () => ++n;
		}
		const c = counter();
		c(); c(); c();
	`
	require.Equal(t, float64(3), run(t, ip, src).ToFloat())
}

func TestDestructuringPatterns(t *testing.T) {
	ip := NewInterp()
	src := `
		const [a, , b, ...rest] = [1, 2, 3, 4, 5];
		const {x, y: renamed, ...others} = {x: 1, y: 2, z: 3};
		a + b + rest.length + x + renamed + others.z;
	`
	require.Equal(t, float64(1+3+2+1+2+3), run(t, ip, src).ToFloat())
}

func TestTemplateLiteralsAndStrings(t *testing.T) {
	ip := NewInterp()
	require.Equal(t, "hello world", run(t, ip, "const w = 'world'; `hello ${w}`").String())
	require.Equal(t, "OLO", run(t, ip, "'lolo'.toUpperCase().slice(1)").String())
}

func TestArrayMethodsViaPrototype(t *testing.T) {
	ip := NewInterp()
	src := `
		const arr = [1, 2, 3, 4];
		arr.map(x => x * 2).filter(x => x > 4).reduce((a, b) => a + b, 0);
	`
	require.Equal(t, float64(6+8), run(t, ip, src).ToFloat())
}

// TestArrayPrototypeChainWiring guards against the array-proto-not-set
// regression: an array literal must resolve Array.prototype methods
// through its proto chain, not only through special-cased builtins.
func TestArrayPrototypeChainWiring(t *testing.T) {
	ip := NewInterp()
	src := `
		const arr = [3, 1, 2];
		Array.prototype.sum = function() {
			return this.reduce((a, b) => a + b, 0);
		};
		arr.sum();
	`
	require.Equal(t, float64(6), run(t, ip, src).ToFloat())
}

// TestInOperatorWalksPrototypeChain guards against the `in` operator
// bug that only checked an object's own properties.
func TestInOperatorWalksPrototypeChain(t *testing.T) {
	ip := NewInterp()
	require.True(t, run(t, ip, "'toString' in {}").ToBoolean())
	require.True(t, run(t, ip, "'hasOwnProperty' in {}").ToBoolean())
	require.False(t, run(t, ip, "'nope' in {}").ToBoolean())
	src := `
		function Base() {}
		Base.prototype.greet = function() { return 'hi'; };
		const b = new Base();
		'greet' in b;
	`
	require.True(t, run(t, ip, src).ToBoolean())
}

// TestDateValueOfCoercion guards against toPrimitive bypassing the
// prototype chain: Date.prototype.valueOf lives on dateProto, not on
// the instance, so arithmetic/template coercion must walk the chain.
func TestDateValueOfCoercion(t *testing.T) {
	ip := NewInterp()
	src := `
		const d = new Date(1000);
		const ms = d + 500;
		typeof ms === 'number' && ms === 1500;
	`
	require.True(t, run(t, ip, src).ToBoolean())
	require.Equal(t, float64(1000), run(t, ip, "new Date(1000).valueOf()").ToFloat())
}

func TestClassesAreRejectedAtParseTime(t *testing.T) {
	ip := NewInterp()
	_, err := ip.Run("class Foo {}")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestTryCatchFinally(t *testing.T) {
	ip := NewInterp()
	src := `
		let trace = [];
		try {
			trace.push('try');
			throw new Error('boom');
		} catch (e) {
			trace.push('catch:' + e.message);
		} finally {
			trace.push('finally');
		}
		trace.join(',');
	`
	require.Equal(t, "try,catch:boom,finally", run(t, ip, src).String())
}

func TestGeneratorsEagerCollection(t *testing.T) {
	ip := NewInterp()
	src := `
		function* gen() {
			yield 1;
			yield 2;
			yield 3;
		}
		const out = [];
		for (const v of gen()) {
			out.push(v);
		}
		out.join('-');
	`
	require.Equal(t, "1-2-3", run(t, ip, src).String())
}

func TestAsyncAwaitSynchronousDrain(t *testing.T) {
	ip, _, _, sched := newDOMFixture(t)
	src := `
		async function addOne(n) {
			const v = await Promise.resolve(n);
			return v + 1;
		}
		let result = null;
		addOne(41).then(v => { result = v; });
		result;
	`
	run(t, ip, src)
	sched.Flush()
	got := run(t, ip, "result")
	require.Equal(t, float64(42), got.ToFloat())
}

func TestPromiseCombinators(t *testing.T) {
	ip, _, _, sched := newDOMFixture(t)
	src := `
		let settled = [];
		Promise.all([Promise.resolve(1), Promise.resolve(2)]).then(vs => {
			settled.push('all:' + vs.join(','));
		});
		Promise.race([Promise.resolve('fast'), new Promise(() => {})]).then(v => {
			settled.push('race:' + v);
		});
		Promise.allSettled([Promise.resolve(1), Promise.reject('no')]).then(rs => {
			settled.push('settled:' + rs.map(r => r.status).join(','));
		});
		Promise.reject('boom').catch(e => { settled.push('catch:' + e); });
	`
	run(t, ip, src)
	sched.Flush()
	out := run(t, ip, "settled.join(' | ')").String()
	require.Contains(t, out, "all:1,2")
	require.Contains(t, out, "race:fast")
	require.Contains(t, out, "settled:fulfilled,rejected")
	require.Contains(t, out, "catch:boom")
}

func TestSetTimeoutDrivenByFakeClock(t *testing.T) {
	ip, _, _, sched := newDOMFixture(t)
	run(t, ip, `
		let fired = false;
		setTimeout(() => { fired = true; }, 100);
	`)
	require.False(t, run(t, ip, "fired").ToBoolean())
	sched.AdvanceTime(99)
	require.False(t, run(t, ip, "fired").ToBoolean())
	sched.AdvanceTime(1)
	require.True(t, run(t, ip, "fired").ToBoolean())
}

func TestClearTimeoutPreventsFiring(t *testing.T) {
	ip, _, _, sched := newDOMFixture(t)
	run(t, ip, `
		let fired = false;
		const id = setTimeout(() => { fired = true; }, 50);
		clearTimeout(id);
	`)
	sched.AdvanceTime(1000)
	require.False(t, run(t, ip, "fired").ToBoolean())
}

func TestSetIntervalFiresRepeatedly(t *testing.T) {
	ip, _, _, sched := newDOMFixture(t)
	run(t, ip, `
		let count = 0;
		setInterval(() => { count += 1; }, 10);
	`)
	sched.AdvanceTime(35)
	require.Equal(t, float64(3), run(t, ip, "count").ToFloat())
}

func TestDOMBridgeAttributesAndClassList(t *testing.T) {
	ip, doc, _, _ := newDOMFixture(t)
	el := doc.CreateElement("div")
	doc.Body().AsNode().AppendChild(el.AsNode())
	el.SetId("target")

	src := `
		const el = document.getElementById('target');
		el.setAttribute('data-foo', 'bar');
		el.classList.add('active', 'visible');
		el.classList.remove('visible');
		el.id + ':' + el.getAttribute('data-foo') + ':' + el.className + ':' + el.classList.contains('active');
	`
	require.Equal(t, "target:bar:active:true", run(t, ip, src).String())
}

func TestDOMBridgeStyleProperty(t *testing.T) {
	ip, doc, _, _ := newDOMFixture(t)
	el := doc.CreateElement("div")
	doc.Body().AsNode().AppendChild(el.AsNode())
	el.SetId("styled")

	src := `
		const el = document.getElementById('styled');
		el.style.color = 'red';
		el.style.fontSize = '12px';
		el.style.color + ':' + el.style.fontSize;
	`
	require.Equal(t, "red:12px", run(t, ip, src).String())
}

func TestAddEventListenerAndDispatch(t *testing.T) {
	ip, doc, events, _ := newDOMFixture(t)
	el := doc.CreateElement("button")
	doc.Body().AsNode().AppendChild(el.AsNode())
	el.SetId("btn")

	run(t, ip, `
		let clicks = 0;
		document.getElementById('btn').addEventListener('click', (ev) => {
			clicks += ev.detail;
		});
	`)

	ok := events.Dispatch(el.AsNode(), &domevents.Event{Type: "click", Bubbles: true, Cancelable: true, Detail: Number(5)})
	require.True(t, ok)

	require.Equal(t, float64(5), run(t, ip, "clicks").ToFloat())
}

func TestMutationObserverRecordsAttributeChange(t *testing.T) {
	ip, doc, _, sched := newDOMFixture(t)
	el := doc.CreateElement("div")
	doc.Body().AsNode().AppendChild(el.AsNode())
	el.SetId("observed")

	run(t, ip, `
		let records = [];
		const obs = new MutationObserver((muts) => {
			for (const m of muts) {
				records.push(m.type + ':' + m.attributeName);
			}
		});
		obs.observe(document.getElementById('observed'), {attributes: true});
	`)

	el.SetAttribute("data-x", "1")
	sched.Flush()

	require.Equal(t, "attributes:data-x", run(t, ip, "records.join(',')").String())
}

func TestFormDataCollectsEntries(t *testing.T) {
	ip, doc, _, _ := newDOMFixture(t)
	form := doc.CreateElement("form")
	doc.Body().AsNode().AppendChild(form.AsNode())
	input := doc.CreateElement("input")
	input.SetAttribute("name", "username")
	input.SetAttribute("value", "ada")
	form.AsNode().AppendChild(input.AsNode())
	form.SetId("f")

	src := `
		const fd = new FormData(document.getElementById('f'));
		fd.get('username');
	`
	require.Equal(t, "ada", run(t, ip, src).String())
}

func TestJSONRoundTrip(t *testing.T) {
	ip := NewInterp()
	src := `
		const obj = {a: 1, b: [1, 2, 3], c: 'text'};
		const parsed = JSON.parse(JSON.stringify(obj));
		parsed.a + parsed.b.length + parsed.c.length;
	`
	require.Equal(t, float64(1+3+4), run(t, ip, src).ToFloat())
}

func TestMapAndSet(t *testing.T) {
	ip := NewInterp()
	src := `
		const m = new Map([['a', 1], ['b', 2]]);
		m.set('c', 3);
		const s = new Set([1, 2, 2, 3]);
		m.size + s.size;
	`
	require.Equal(t, float64(3+3), run(t, ip, src).ToFloat())
}

func TestRegexMatchAndReplace(t *testing.T) {
	ip := NewInterp()
	require.True(t, run(t, ip, "/^a+b$/.test('aaab')").ToBoolean())
	require.Equal(t, "x-x-x", run(t, ip, "'a-b-c'.replace(/[abc]/g, 'x')").String())
}

func TestBigIntArithmetic(t *testing.T) {
	ip := NewInterp()
	require.Equal(t, "100", run(t, ip, "(10n * 10n).toString()").String())
}

// TestInternalErrorsAreCatchable guards against internal failures
// (calling a non-function, bad JSON) binding the catch parameter to
// undefined instead of a real TypeError-shaped value.
func TestInternalErrorsAreCatchable(t *testing.T) {
	ip := NewInterp()
	src := `
		let caught = null;
		try {
			JSON.parse('{not valid}');
		} catch (e) {
			caught = e.name + ':' + (e.message.length > 0);
		}
		caught;
	`
	require.Equal(t, "TypeError:true", run(t, ip, src).String())

	src2 := `
		let caught = null;
		try {
			const notAFunction = 42;
			notAFunction();
		} catch (e) {
			caught = e.name;
		}
		caught;
	`
	require.Equal(t, "TypeError", run(t, ip, src2).String())
}

func TestConsoleOutputCapture(t *testing.T) {
	ip := NewInterp()
	run(t, ip, "console.log('hello', 1, true);")
	require.NotNil(t, ip.ConsoleOutput)
	require.Contains(t, (*ip.ConsoleOutput)[0], "hello")
}

func TestWindowGlobalsWiredOnDOMInterp(t *testing.T) {
	ip, _, _, _ := newDOMFixture(t)
	require.True(t, run(t, ip, "typeof window === 'object'").ToBoolean())
	require.True(t, run(t, ip, "window === globalThis").ToBoolean())
	require.True(t, run(t, ip, "typeof document === 'object'").ToBoolean())
}

func TestLocalStorageBridge(t *testing.T) {
	ip, _, _, _ := newDOMFixture(t)
	run(t, ip, "localStorage.setItem('k', 'v');")
	require.Equal(t, "v", run(t, ip, "localStorage.getItem('k')").String())
	run(t, ip, "localStorage.removeItem('k');")
	require.True(t, run(t, ip, "localStorage.getItem('k') === null").ToBoolean())
}

func TestQueueMicrotaskOrdering(t *testing.T) {
	ip, _, _, sched := newDOMFixture(t)
	run(t, ip, `
		let order = [];
		queueMicrotask(() => order.push('micro'));
		order.push('sync');
	`)
	require.Equal(t, "sync", run(t, ip, "order[0]").String())
	sched.Flush()
	require.Equal(t, "micro", run(t, ip, "order[1]").String())
}
